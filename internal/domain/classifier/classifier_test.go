package classifier

import (
	"slices"
	"testing"
)

func TestShouldAnalyze_SimpleCourseEmail(t *testing.T) {
	d := ShouldAnalyze("Reminder", "prof@uni.edu", "CS-101 lecture moved to room 204")

	if d.NeedsAnalysis {
		t.Error("expected NeedsAnalysis=false")
	}
	if d.Reason != ReasonSimpleCourseEmail {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonSimpleCourseEmail)
	}
	if !slices.Contains(d.Metadata.CourseTags, "CS-101") {
		t.Errorf("CourseTags = %v, want CS-101", d.Metadata.CourseTags)
	}
	if d.Metadata.SenderType != SenderProfessor {
		t.Errorf("SenderType = %q", d.Metadata.SenderType)
	}
	if d.Metadata.ContentType != ContentAnnouncement {
		t.Errorf("ContentType = %q", d.Metadata.ContentType)
	}
}

func TestShouldAnalyze_HasImportantInfo(t *testing.T) {
	d := ShouldAnalyze("URGENT", "admin@uni.edu", "Final exam cancelled, rescheduled to Friday")

	if !d.NeedsAnalysis {
		t.Error("expected NeedsAnalysis=true")
	}
	if d.Reason != ReasonHasImportantInfo {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonHasImportantInfo)
	}
	if len(d.Metadata.AlertTags) == 0 {
		t.Fatal("expected alert tags")
	}
	for _, want := range []string{"cancelled", "rescheduled", "urgent"} {
		if !slices.Contains(d.Metadata.AlertTags, want) {
			t.Errorf("AlertTags = %v, missing %q", d.Metadata.AlertTags, want)
		}
	}
	if d.Metadata.ContentType != ContentExam {
		t.Errorf("ContentType = %q", d.Metadata.ContentType)
	}
	if d.Metadata.SenderType != SenderAdmin {
		t.Errorf("SenderType = %q", d.Metadata.SenderType)
	}
	if !d.Metadata.NeedsAttention {
		t.Error("expected NeedsAttention")
	}
}

func TestShouldAnalyze_Reasons(t *testing.T) {
	tests := []struct {
		name                  string
		subject, sender, body string
		want                  Reason
		wantNeeds             bool
	}{
		{"newsletter", "Weekly digest", "news@shop.com", "Big sale on shoes", ReasonNotAcademic, false},
		{"announcement only", "Notice", "office@uni.edu", "The library opens late", ReasonNoImportantInfo, false},
		{"announcement with deadline", "Reminder: lab safety", "noreply@uni.edu", "Please submit the safety form before Friday", ReasonHasImportantInfo, true},
		{"homework deadline", "HW3", "ta@uni.edu", "Homework is due Friday", ReasonHasImportantInfo, true},
		{"course deadline", "MATH 221", "prof@uni.edu", "Submit the lab before noon", ReasonHasImportantInfo, true},
		{"quiz without signals", "Quiz review", "student@uni.edu", "Let's study together", ReasonNoImportantInfo, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := ShouldAnalyze(tc.subject, tc.sender, tc.body)
			if d.Reason != tc.want {
				t.Errorf("Reason = %q, want %q (metadata %+v)", d.Reason, tc.want, d.Metadata)
			}
			if d.NeedsAnalysis != tc.wantNeeds {
				t.Errorf("NeedsAnalysis = %v, want %v", d.NeedsAnalysis, tc.wantNeeds)
			}
		})
	}
}

func TestExtractMetadata_CourseTags(t *testing.T) {
	tests := []struct {
		body string
		want []string
	}{
		{"cs101 and CS101 again", []string{"CS101"}},
		{"MATH-2210A tomorrow", []string{"MATH-2210A"}},
		{"ECE 340 and ece 340", []string{"ECE 340"}},
		{"nothing here", []string{}},
	}
	for _, tc := range tests {
		m := ExtractMetadata("", "", tc.body)
		if !slices.Equal(m.CourseTags, tc.want) {
			t.Errorf("ExtractMetadata(%q).CourseTags = %v, want %v", tc.body, m.CourseTags, tc.want)
		}
	}
}

func TestExtractMetadata_Dates(t *testing.T) {
	m := ExtractMetadata("", "", "10/14/2025 or march 3rd")
	if !slices.Contains(m.Dates, "10/14/2025") {
		t.Errorf("Dates = %v, missing numeric date", m.Dates)
	}
	if !slices.Contains(m.Dates, "march 3rd") {
		t.Errorf("Dates = %v, missing named date", m.Dates)
	}
}

func TestSenderRules_OnlySenderField(t *testing.T) {
	m := ExtractMetadata("Message from the professor", "friend@mail.com", "The professor said hi")
	if m.SenderType != SenderOther {
		t.Errorf("SenderType = %q, want %q", m.SenderType, SenderOther)
	}
}

func TestContentTypeRules_FirstMatchWins(t *testing.T) {
	msg := Message{Body: "homework for the midterm"}
	if got := ContentTypeRules.First(msg, ContentOther); got != ContentAssignment {
		t.Errorf("First() = %q, want %q", got, ContentAssignment)
	}
}

func TestRuleTables_EachRule(t *testing.T) {
	tests := []struct {
		table Table
		text  string
		tag   string
	}{
		{DeadlineRules, "submission window", "deadline"},
		{AlertRules, "ROOM CHANGE for today", "room change"},
		{AlertRules, "lab postponed", "postponed"},
		{ContentTypeRules, "problem set 4", ContentAssignment},
		{ContentTypeRules, "pop quiz", ContentExam},
		{ContentTypeRules, "course update", ContentAnnouncement},
		{SenderRules, "Dr. Jones <jones@uni.edu>", SenderProfessor},
		{SenderRules, "Teaching Assistant <ta@uni.edu>", SenderTA},
		{SenderRules, "Registrar <reg@uni.edu>", SenderAdmin},
	}
	for _, tc := range tests {
		msg := Message{Sender: tc.text, Body: tc.text}
		if tags := tc.table.All(msg); !slices.Contains(tags, tc.tag) {
			t.Errorf("%q: tags %v missing %q", tc.text, tags, tc.tag)
		}
	}
}

func TestMetadata_Tags(t *testing.T) {
	m := ExtractMetadata("CS101 homework", "prof@uni.edu", "due friday")
	tags := m.Tags()
	if tags["course"] != "CS101" {
		t.Errorf("course = %q", tags["course"])
	}
	if tags["has_deadline"] != "true" || tags["has_alert"] != "false" {
		t.Errorf("tags = %v", tags)
	}
	if tags["content_type"] != ContentAssignment {
		t.Errorf("content_type = %q", tags["content_type"])
	}
}
