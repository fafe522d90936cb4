package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/logger"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
)

// errorCode is the machine-readable part of an error response.
type errorCode string

const (
	codeBadRequest              errorCode = "bad_request"
	codeValidationFailed        errorCode = "validation_failed"
	codeUnauthorized            errorCode = "unauthorized"
	codeNotFound                errorCode = "not_found"
	codeToolNotFound            errorCode = "tool_not_found"
	codeVectorDimMismatch       errorCode = "vector_dim_mismatch"
	codeRateLimited             errorCode = "rate_limited"
	codeQueueFull               errorCode = "queue_full"
	codeUnavailable             errorCode = "unavailable"
	codeEmbeddingQuotaExceeded  errorCode = "embedding_quota_exceeded"
	codeEmbeddingProviderError  errorCode = "embedding_provider_error"
	codeGenerationProviderError errorCode = "generation_provider_error"
	codeNoActiveConnection      errorCode = "no_active_connection"
	codeExternalExecution       errorCode = "external_execution_error"
	codeInternalError           errorCode = "internal_error"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// defaultErrorHandlers is evaluated in order; the first match wins.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		noActiveConnectionHandler,
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrToolNotFound, http.StatusNotFound, codeToolNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(ratelimit.ErrQueueFull, http.StatusTooManyRequests, codeQueueFull),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(ratelimit.ErrClosed, http.StatusServiceUnavailable, codeUnavailable),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, codeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError,
			http.StatusBadGateway, codeGenerationProviderError),
		sentinelHandler(domain.ErrExternalExecution,
			http.StatusBadGateway, codeExternalExecution),
	}
}

// clientSentinels are the errors whose text is safe to show to a client.
var clientSentinels = []error{
	domain.ErrInvalidQuery,
	domain.ErrInvalidDocument,
	domain.ErrVectorDimMismatch,
	domain.ErrToolNotFound,
	domain.ErrDocumentNotFound,
	domain.ErrNotFound,
	ratelimit.ErrQueueFull,
	domain.ErrRateLimited,
	ratelimit.ErrClosed,
	domain.ErrEmbeddingQuotaExceeded,
	domain.ErrEmbeddingProviderError,
	domain.ErrGenerationProviderError,
	domain.ErrExternalExecution,
	domain.ErrNoActiveConnection,
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range clientSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// noActiveConnectionHandler names the app that needs connecting.
func noActiveConnectionHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrNoActiveConnection) {
		return false
	}
	var nce *domain.NoActiveConnectionError
	if errors.As(err, &nce) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":    codeNoActiveConnection,
			"message": nce.Error(),
			"app":     nce.App,
		})
		return true
	}
	writeError(w, http.StatusConflict, codeNoActiveConnection, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
