// Package tool holds the tool catalog entry and the typed outcome of a dispatch.
package tool

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/campusagent/internal/domain"
)

// Domain groups tools by the connected app they act on.
type Domain string

// Known tool domains.
const (
	DomainGmail     Domain = "gmail"
	DomainCalendar  Domain = "googlecalendar"
	DomainClassroom Domain = "googleclassroom"
	DomainDrive     Domain = "googledrive"
	DomainInternal  Domain = "internal"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,63}$`)

// Definition is a registered tool. An empty ExternalActionID marks an internal tool.
type Definition struct {
	Name             string
	Description      string
	Domain           Domain
	ExternalActionID string
	Parameters       map[string]any
}

// Validate checks the definition is usable as a function declaration.
func (d Definition) Validate() error {
	if !nameRegex.MatchString(d.Name) {
		return fmt.Errorf("%w: name %q", domain.ErrInvalidTool, d.Name)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: %s has no description", domain.ErrInvalidTool, d.Name)
	}
	return nil
}

// IsInternal reports whether the tool is served in-process.
func (d Definition) IsInternal() bool { return d.ExternalActionID == "" }

// Declaration converts the definition for a generative backend.
func (d Definition) Declaration() domain.FunctionDeclaration {
	return domain.FunctionDeclaration{Name: d.Name, Description: d.Description, Parameters: d.Parameters}
}

// AppForAction derives the connected app from an action identifier prefix,
// e.g. GMAIL_SEND_EMAIL -> gmail.
func AppForAction(actionID string) Domain {
	prefix, _, _ := strings.Cut(actionID, "_")
	switch strings.ToUpper(prefix) {
	case "GMAIL":
		return DomainGmail
	case "GOOGLECALENDAR", "CALENDAR":
		return DomainCalendar
	case "GOOGLECLASSROOM", "CLASSROOM":
		return DomainClassroom
	case "GOOGLEDRIVE", "DRIVE":
		return DomainDrive
	}
	return Domain(strings.ToLower(prefix))
}

// Result is the outcome of one dispatch. Build it with OK or Fail.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// OK wraps a successful payload.
func OK(data any) Result { return Result{Success: true, Data: data} }

// Fail wraps a failure. The error stays inspectable through Err.
func Fail(err error) Result {
	if err == nil {
		err = domain.ErrExternalExecution
	}
	return Result{Error: err.Error(), err: err}
}

// Err returns the failure cause, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return fmt.Errorf("%w: %s", domain.ErrExternalExecution, r.Error)
}

// Executor runs external actions on behalf of a user.
type Executor interface {
	Execute(ctx context.Context, userID, actionID string, params map[string]any) (Result, error)
}

// Handler serves an internal tool.
type Handler func(ctx context.Context, userID string, params map[string]any) (any, error)
