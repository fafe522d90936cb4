// Package classifier is a cheap deterministic pre-filter for academic mail.
// It decides, without any backend call, whether a message deserves generative analysis.
package classifier

import (
	"slices"
	"strconv"
	"strings"
)

// Content types.
const (
	ContentAssignment   = "assignment"
	ContentExam         = "exam"
	ContentAnnouncement = "announcement"
	ContentOther        = "other"
)

// Sender roles.
const (
	SenderProfessor = "professor"
	SenderTA        = "ta"
	SenderAdmin     = "admin"
	SenderOther     = "other"
)

// Reason explains a gating decision.
type Reason string

// Gating reasons, in evaluation order.
const (
	ReasonNotAcademic       Reason = "not_academic"
	ReasonSimpleCourseEmail Reason = "simple_course_email"
	ReasonHasImportantInfo  Reason = "has_important_info"
	ReasonNoImportantInfo   Reason = "no_important_info"
)

// Metadata is everything the classifier derives from a message.
type Metadata struct {
	CourseTags     []string `json:"course_tags"`
	HasDeadline    bool     `json:"has_deadline"`
	Dates          []string `json:"dates"`
	AlertTags      []string `json:"alert_tags"`
	ContentType    string   `json:"content_type"`
	SenderType     string   `json:"sender_type"`
	IsAcademic     bool     `json:"is_academic"`
	NeedsAttention bool     `json:"needs_attention"`
}

// Decision is the outcome of ShouldAnalyze.
type Decision struct {
	NeedsAnalysis bool     `json:"needs_analysis"`
	Reason        Reason   `json:"reason"`
	Metadata      Metadata `json:"metadata"`
}

// ExtractMetadata derives Metadata from a message using the rule tables.
func ExtractMetadata(subject, sender, body string) Metadata {
	msg := Message{Subject: subject, Sender: sender, Body: body}
	text := msg.text(FieldAll)

	courses := uniqueUpper(coursePattern.FindAllString(text, -1))
	contentType := ContentTypeRules.First(msg, ContentOther)
	alerts := AlertRules.All(msg)
	hasDeadline := len(DeadlineRules.All(msg)) > 0

	return Metadata{
		CourseTags:     courses,
		HasDeadline:    hasDeadline,
		Dates:          datePattern.FindAllString(text, -1),
		AlertTags:      alerts,
		ContentType:    contentType,
		SenderType:     SenderRules.First(msg, SenderOther),
		IsAcademic:     len(courses) > 0 || contentType != ContentOther,
		NeedsAttention: len(alerts) > 0 || hasDeadline,
	}
}

// ShouldAnalyze gates expensive analysis. Only messages with a deadline or alert
// signal are worth a generative call.
func ShouldAnalyze(subject, sender, body string) Decision {
	m := ExtractMetadata(subject, sender, body)
	d := Decision{Metadata: m}

	switch {
	case !m.IsAcademic:
		d.Reason = ReasonNotAcademic
	case len(m.CourseTags) > 0 && !m.HasDeadline && len(m.AlertTags) == 0:
		d.Reason = ReasonSimpleCourseEmail
	case m.HasDeadline || len(m.AlertTags) > 0:
		d.NeedsAnalysis = true
		d.Reason = ReasonHasImportantInfo
	default:
		d.Reason = ReasonNoImportantInfo
	}
	return d
}

// PrimaryCourse returns the first detected course tag, or "".
func (m Metadata) PrimaryCourse() string {
	if len(m.CourseTags) == 0 {
		return ""
	}
	return m.CourseTags[0]
}

// Tags flattens the metadata into string pairs for storage.
func (m Metadata) Tags() map[string]string {
	return map[string]string{
		"course":       m.PrimaryCourse(),
		"courses":      strings.Join(m.CourseTags, ","),
		"has_deadline": strconv.FormatBool(m.HasDeadline),
		"has_alert":    strconv.FormatBool(len(m.AlertTags) > 0),
		"content_type": m.ContentType,
		"sender_type":  m.SenderType,
		"is_academic":  strconv.FormatBool(m.IsAcademic),
	}
}

// uniqueUpper upper-cases matches and drops duplicates, keeping first-seen order.
func uniqueUpper(matches []string) []string {
	out := make([]string, 0, len(matches))
	for _, s := range matches {
		s = strings.ToUpper(s)
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
