package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/usecase/triage"
)

type toolResponse struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Domain           tool.Domain    `json:"domain"`
	ExternalActionID string         `json:"external_action_id,omitempty"`
	Parameters       map[string]any `json:"parameters,omitempty"`
}

type toolsResponse struct {
	Tools []toolResponse `json:"tools"`
}

// triageRequest is shared by triage and summarize.
type triageRequest struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Body    string `json:"body"`
}

// ListTools handles GET /v1/tools.
func (s *Server) ListTools(w http.ResponseWriter, _ *http.Request) {
	defs := s.svc.Tools.Definitions()
	items := make([]toolResponse, len(defs))
	for i, d := range defs {
		items[i] = toolResponse{
			Name:             d.Name,
			Description:      d.Description,
			Domain:           d.Domain,
			ExternalActionID: d.ExternalActionID,
			Parameters:       d.Parameters,
		}
	}
	writeJSON(w, http.StatusOK, toolsResponse{Tools: items})
}

// Triage handles POST /v1/triage.
func (s *Server) Triage(w http.ResponseWriter, r *http.Request) {
	var req triageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "subject or body is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	analysis := s.svc.Triage.Analyze(ctx, req.Subject, req.From, req.Body)

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, analysis)
}

type summarizeResponse struct {
	Success bool `json:"success"`
	triage.Summary
}

// Summarize handles POST /v1/summarize.
func (s *Server) Summarize(w http.ResponseWriter, r *http.Request) {
	var req triageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "subject or body is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	summary, err := s.svc.Summarize.Summarize(ctx, req.Subject, req.From, req.Body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, summarizeResponse{Success: true, Summary: summary})
}
