package classifier

import (
	"regexp"
	"strings"
)

// Rule tags text matching Pattern with Tag.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// Field selects which part of a message a rule table is evaluated against.
type Field int

// Rule targets.
const (
	// FieldAll is subject, sender and body joined and lower-cased.
	FieldAll Field = iota
	// FieldSender is the sender header only.
	FieldSender
)

// Message is the input to every rule table.
type Message struct {
	Subject string
	Sender  string
	Body    string
}

func (m Message) text(f Field) string {
	if f == FieldSender {
		return m.Sender
	}
	return strings.ToLower(m.Subject + " " + m.Sender + " " + m.Body)
}

// Table is an ordered list of rules evaluated against one field.
type Table struct {
	Field Field
	Rules []Rule
}

// First returns the tag of the first matching rule, or fallback.
func (t Table) First(m Message, fallback string) string {
	text := m.text(t.Field)
	for _, r := range t.Rules {
		if r.Pattern.MatchString(text) {
			return r.Tag
		}
	}
	return fallback
}

// All returns the tags of every matching rule, in table order.
func (t Table) All(m Message) []string {
	text := m.text(t.Field)
	var tags []string
	for _, r := range t.Rules {
		if r.Pattern.MatchString(text) {
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

func word(tag, alternatives string) Rule {
	return Rule{Tag: tag, Pattern: regexp.MustCompile(`(?i)\b(?:` + alternatives + `)\b`)}
}

func substring(tag string) Rule {
	return Rule{Tag: tag, Pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(tag))}
}

var (
	coursePattern = regexp.MustCompile(`(?i)\b([A-Z]{2,4}[-\s]?\d{3,4}[A-Z]?)\b`)
	datePattern   = regexp.MustCompile(`(?i)\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\w+ \d{1,2}(?:st|nd|rd|th)?)\b`)
)

// DeadlineRules detect a deadline signal.
var DeadlineRules = Table{Field: FieldAll, Rules: []Rule{
	word("deadline", `due|deadline|submit|submission|by|before`),
}}

// AlertRules detect schedule disruptions. Matched as plain substrings.
var AlertRules = Table{Field: FieldAll, Rules: []Rule{
	substring("cancelled"),
	substring("canceled"),
	substring("rescheduled"),
	substring("postponed"),
	substring("urgent"),
	substring("room change"),
}}

// ContentTypeRules classify the message; the first match wins.
var ContentTypeRules = Table{Field: FieldAll, Rules: []Rule{
	word(ContentAssignment, `assignment|homework|hw|problem set|ps`),
	word(ContentExam, `exam|test|quiz|midterm|final`),
	word(ContentAnnouncement, `announcement|update|notice|reminder`),
}}

// SenderRules classify the sender header; the first match wins.
var SenderRules = Table{Field: FieldSender, Rules: []Rule{
	{Tag: SenderProfessor, Pattern: regexp.MustCompile(`(?i)\b(?:professor|prof|instructor|teacher)\b|\bdr\.`)},
	word(SenderTA, `ta|teaching assistant`),
	word(SenderAdmin, `admin|office|registrar|department`),
}}
