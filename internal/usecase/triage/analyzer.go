// Package triage extracts course, deadlines and alerts from a mail message,
// spending a generative call only when the classifier gate allows it. It also
// writes student-facing summaries of single messages.
package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/classifier"
	"github.com/kailas-cloud/campusagent/internal/logger"
)

// maxBodyRunes bounds the body forwarded to the backend.
const maxBodyRunes = 1000

// Deadline is one dated obligation found in a message.
type Deadline struct {
	Title string `json:"title"`
	DueAt string `json:"dueAt"`
	Type  string `json:"type"` // assignment | exam | submission | event
}

// Alert is a disruption notice (cancelled, rescheduled, urgent, room_change).
type Alert struct {
	Kind    string  `json:"kind"`
	Subject string  `json:"subject"`
	Link    *string `json:"link"`
}

// Analysis is the triage outcome.
type Analysis struct {
	Course    string     `json:"course,omitempty"`
	Deadlines []Deadline `json:"deadlines"`
	Alert     *Alert     `json:"alert"`
	UsedAI    bool       `json:"usedAI"`
	Reason    string     `json:"reason"`
}

// Analyzer runs the gate and, when needed, one generation.
type Analyzer struct {
	gen domain.Generator
}

// NewAnalyzer creates an analyzer. gen should already be rate limited.
func NewAnalyzer(gen domain.Generator) *Analyzer {
	return &Analyzer{gen: gen}
}

// Analyze never fails: generation or parse errors degrade to the metadata-only answer.
func (a *Analyzer) Analyze(ctx context.Context, subject, sender, body string) Analysis {
	decision := classifier.ShouldAnalyze(subject, sender, body)
	meta := decision.Metadata

	if !decision.NeedsAnalysis {
		out := fromMetadata(meta, subject)
		out.Reason = string(decision.Reason)
		return out
	}

	log := logger.FromContext(ctx)
	text, err := a.gen.Generate(ctx, []domain.Message{{Role: domain.RoleUser, Content: buildPrompt(subject, sender, body)}})
	if err != nil {
		log.Warn("Triage generation failed", zap.Error(err))
		return Analysis{Course: meta.PrimaryCourse(), Deadlines: []Deadline{}, Reason: string(decision.Reason)}
	}

	out, err := parseAnalysis(text)
	if err != nil {
		log.Warn("Triage response unparseable", zap.Error(err))
		out = Analysis{Deadlines: []Deadline{}}
	}
	if out.Course == "" {
		out.Course = meta.PrimaryCourse()
	}
	if out.Deadlines == nil {
		out.Deadlines = []Deadline{}
	}
	out.UsedAI = true
	out.Reason = string(decision.Reason)
	return out
}

func fromMetadata(meta classifier.Metadata, subject string) Analysis {
	out := Analysis{Course: meta.PrimaryCourse(), Deadlines: []Deadline{}}
	if len(meta.AlertTags) > 0 {
		kind := "urgent"
		if strings.Contains(meta.AlertTags[0], "cancel") {
			kind = "cancelled"
		}
		out.Alert = &Alert{Kind: kind, Subject: subject}
	}
	return out
}

// parseAnalysis decodes the outermost {...} span of a model answer.
func parseAnalysis(text string) (Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Analysis{}, fmt.Errorf("no JSON object in response")
	}

	var raw struct {
		Course    *string    `json:"course"`
		Deadlines []Deadline `json:"deadlines"`
		Alert     *Alert     `json:"alert"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}

	out := Analysis{Deadlines: raw.Deadlines, Alert: raw.Alert}
	if raw.Course != nil {
		out.Course = *raw.Course
	}
	return out, nil
}

func buildPrompt(subject, sender, body string) string {
	if r := []rune(body); len(r) > maxBodyRunes {
		body = string(r[:maxBodyRunes])
	}
	return fmt.Sprintf(`Analyze this email and extract ALL of the following in ONE JSON response:

{
  "course": "Course code or name (e.g., CS-101, Math 204) or null if not found",
  "deadlines": [
    {
      "title": "Assignment/exam name",
      "dueAt": "YYYY-MM-DDTHH:mm:ss.000Z (ISO 8601)",
      "type": "assignment" | "exam" | "submission" | "event"
    }
  ],
  "alert": {
    "kind": "cancelled" | "rescheduled" | "urgent" | "room_change",
    "subject": "Brief description",
    "link": null
  } or null if no alert
}

Return ONLY valid JSON. If course/deadlines/alert not found, use null or empty array.

From: %s
Subject: %s
Body: %s`, sender, subject, body)
}
