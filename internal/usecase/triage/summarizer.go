package triage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/logger"
)

// Section headings of a summary answer.
const (
	headingPurpose = "Main Purpose"
	headingActions = "Action Items"
	headingDetails = "Key Details"
)

// actionHints mark a body that likely asks the student to do something.
var actionHints = []string{"action", "deadline", "submit", "check"}

// Summary is a student-facing digest of one mail.
type Summary struct {
	Purpose     string   `json:"purpose"`
	ActionItems []string `json:"actionItems"`
	KeyDetails  []string `json:"keyDetails"`
	Text        string   `json:"summary"`
}

// Summarizer digests a mail with one generation.
type Summarizer struct {
	gen domain.Generator
}

// NewSummarizer creates a summarizer. gen should already be rate limited.
func NewSummarizer(gen domain.Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize returns the digest of a mail. Unlike Analyze it reports backend
// failures, since there is no metadata-only fallback for a summary.
func (s *Summarizer) Summarize(ctx context.Context, subject, sender, body string) (Summary, error) {
	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		return Summary{}, fmt.Errorf("%w: subject or body is required", domain.ErrInvalidDocument)
	}

	text, err := s.gen.Generate(ctx, []domain.Message{{Role: domain.RoleUser, Content: buildSummaryPrompt(subject, sender, body)}})
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}

	out := parseSummary(text)
	if out.Purpose == "" {
		logger.FromContext(ctx).Debug("Summary without sections", zap.Int("length", len(text)))
	}
	return out, nil
}

// parseSummary splits the markdown answer into its sections. Unknown sections
// are kept only in Text.
func parseSummary(text string) Summary {
	out := Summary{Text: strings.TrimSpace(text), ActionItems: []string{}, KeyDetails: []string{}}

	var section string
	var purpose []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if h, ok := strings.CutPrefix(line, "###"); ok {
			section = matchHeading(h)
			continue
		}
		if line == "" || line == "---" || strings.HasPrefix(line, "#") {
			continue
		}
		switch section {
		case headingPurpose:
			purpose = append(purpose, line)
		case headingActions:
			if item := listItem(line); item != "" && !isNone(item) {
				out.ActionItems = append(out.ActionItems, item)
			}
		case headingDetails:
			if item := listItem(line); item != "" && !isNone(item) {
				out.KeyDetails = append(out.KeyDetails, item)
			}
		}
	}
	out.Purpose = strings.Join(purpose, " ")
	return out
}

func matchHeading(h string) string {
	for _, name := range []string{headingPurpose, headingActions, headingDetails} {
		if strings.Contains(strings.ToLower(h), strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

func listItem(line string) string {
	for _, bullet := range []string{"•", "-", "*"} {
		if rest, ok := strings.CutPrefix(line, bullet); ok {
			return strings.TrimSpace(rest)
		}
	}
	return line
}

// isNone matches the "_No immediate action required._" placeholder.
func isNone(item string) bool {
	item = strings.ToLower(strings.Trim(item, "_* ."))
	return item == "none" || strings.HasPrefix(item, "no immediate action") || strings.HasPrefix(item, "no action")
}

func buildSummaryPrompt(subject, sender, body string) string {
	if r := []rune(body); len(r) > maxBodyRunes {
		body = string(r[:maxBodyRunes])
	}

	actions := "_No immediate action required._"
	lower := strings.ToLower(body)
	for _, h := range actionHints {
		if strings.Contains(lower, h) {
			actions = "[List specific actions required with bullet points]"
			break
		}
	}

	return fmt.Sprintf(`You are a professional email assistant for college students. Analyze the following email and provide a clean, well-structured summary.

Subject: %s
From: %s
Content: %s

Use this EXACT format:

## Email Summary

### %s
[The email's primary purpose in 1-2 sentences]

### %s
%s

### %s
[The most important information, dates, requirements or context, one bullet (•) each]

Be concise (3-5 sentences total), use _italics_ for "None", and include specific dates and times if mentioned.`,
		subject, sender, body, headingPurpose, headingActions, actions, headingDetails)
}
