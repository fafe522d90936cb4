package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/logger"
	"github.com/kailas-cloud/campusagent/internal/metrics"
	healthuc "github.com/kailas-cloud/campusagent/internal/usecase/health"
	usageuc "github.com/kailas-cloud/campusagent/internal/usecase/usage"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// Services are the collaborators behind the API. A nil service disables its routes.
type Services struct {
	Agent       Agent
	Tools       ToolCatalog
	Index       Indexer
	Search      Searcher
	Sync        MailSyncer
	Triage      Triager
	Summarize   Summarizer
	Connections ConnectionLister
	Health      HealthChecker
	Usage       UsageReporter
}

// Options configures the middleware stack.
type Options struct {
	APIKeys  []string
	Throttle *Throttle
}

// Server serves the assistant HTTP API on a chi router.
type Server struct {
	svc           Services
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	return &Server{
		svc:           svc,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Handler builds the router with the full middleware stack.
func (s *Server) Handler(opts Options) http.Handler {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(opts.Throttle.Middleware)
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	s.Mount(r)
	return r
}

// Mount registers the API routes on r.
func (s *Server) Mount(r gochi.Router) {
	if s.svc.Health != nil {
		r.Get("/health", s.HealthCheck)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r gochi.Router) {
		if s.svc.Agent != nil {
			r.Post("/chat", s.Chat)
			r.Post("/chat/stream", s.ChatStream)
		}
		if s.svc.Tools != nil {
			r.Get("/tools", s.ListTools)
		}
		if s.svc.Triage != nil {
			r.Post("/triage", s.Triage)
		}
		if s.svc.Summarize != nil {
			r.Post("/summarize", s.Summarize)
		}
		if s.svc.Usage != nil {
			r.Get("/usage", s.GetUsage)
		}

		r.Route("/users/{user}", func(r gochi.Router) {
			r.Use(tagUser)
			if s.svc.Index != nil {
				r.Post("/documents", s.IndexDocuments)
				r.Get("/stats", s.Stats)
			}
			if s.svc.Search != nil {
				r.Get("/search", s.Search)
			}
			if s.svc.Sync != nil {
				r.Post("/sync", s.SyncMail)
				r.Get("/sync", s.SyncStatus)
			}
			if s.svc.Connections != nil {
				r.Get("/connections", s.ListConnections)
			}
		})
	})
}

// RequestID takes X-Request-ID from the client or assigns a fresh UUID.
// The id is stored under chi's request id key so chimw.GetReqID finds it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(chimw.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// GetUsage handles GET /v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Usage.GetReport(r.Context(), period))
}

// decodeJSON reads a size-limited JSON body into v. It writes the 400 itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Invalid request body: " + err.Error()
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		case errors.Is(err, io.EOF):
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, msg)
		return false
	}
	return true
}

// setUsageHeaders reports backend consumption collected during the request.
func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if n := usage.EmbeddingTokens(); n > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(n))
	}
	if n := usage.Generations(); n > 0 {
		w.Header().Set("X-Generation-Calls", strconv.Itoa(n))
	}
}

// tagUser adds the path user to the request logger.
func tagUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithUser(r.Context(), gochi.URLParam(r, "user"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
