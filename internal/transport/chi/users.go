package chi

import (
	"net/http"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/syncstate"
	"github.com/kailas-cloud/campusagent/internal/transport/composio"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
)

type indexRequest struct {
	Documents []index.Input `json:"documents"`
}

type searchHit struct {
	ID         string            `json:"id"`
	Similarity float64           `json:"similarity"`
	Fields     map[string]string `json:"fields"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type searchResponse struct {
	Query   string      `json:"query"`
	Results []searchHit `json:"results"`
}

type syncStatusResponse struct {
	Synced bool             `json:"synced"`
	State  *syncstate.State `json:"state,omitempty"`
}

type connectionsResponse struct {
	Connections []composio.Connection `json:"connections"`
}

// IndexDocuments handles POST /v1/users/{user}/documents.
func (s *Server) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	userID := gochi.URLParam(r, "user")

	var req indexRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "documents must not be empty")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.svc.Index.Index(ctx, userID, req.Documents)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, report)
}

// Stats handles GET /v1/users/{user}/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Index.Stats(r.Context(), gochi.URLParam(r, "user"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Search handles GET /v1/users/{user}/search?q=&top_k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query parameter q is required")
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.svc.Search.Query(ctx, gochi.URLParam(r, "user"), q, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: hitsFromResults(results)})
}

// SyncMail handles POST /v1/users/{user}/sync.
func (s *Server) SyncMail(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.svc.Sync.Sync(ctx, gochi.URLParam(r, "user"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, report)
}

// SyncStatus handles GET /v1/users/{user}/sync.
func (s *Server) SyncStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Sync.Status(r.Context(), gochi.URLParam(r, "user"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := syncStatusResponse{Synced: st.Synced()}
	if resp.Synced {
		resp.State = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListConnections handles GET /v1/users/{user}/connections.
func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.svc.Connections.Connections(r.Context(), gochi.URLParam(r, "user"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if conns == nil {
		conns = []composio.Connection{}
	}
	writeJSON(w, http.StatusOK, connectionsResponse{Connections: conns})
}

func hitsFromResults(results []result.Result) []searchHit {
	hits := make([]searchHit, len(results))
	for i := range results {
		res := &results[i]
		hits[i] = searchHit{
			ID:         res.ID(),
			Similarity: res.Similarity(),
			Fields:     res.Fields(),
			Metadata:   res.Metadata(),
		}
	}
	return hits
}
