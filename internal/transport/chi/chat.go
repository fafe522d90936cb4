package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/chat"
	"github.com/kailas-cloud/campusagent/internal/logger"
)

type chatRequest struct {
	UserID   string           `json:"user_id"`
	Messages []domain.Message `json:"messages"`
}

func (req *chatRequest) validate() error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	for i, m := range req.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
		}
	}
	return nil
}

type chunkEvent struct {
	Text string `json:"text"`
}

// Chat handles POST /v1/chat. A turn always yields 200; faults are rendered in the reply text.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readChatRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(logger.WithUser(r.Context(), req.UserID))
	reply := s.svc.Agent.RunTurn(ctx, req.UserID, req.Messages)

	setUsageHeaders(w, usage)
	w.Header().Set("X-Agent-Path", string(reply.Path))
	writeJSON(w, http.StatusOK, reply)
}

// ChatStream handles POST /v1/chat/stream as server-sent events: one "chunk"
// event per generated fragment, then a "done" event carrying the full reply.
func (s *Server) ChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readChatRequest(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.FromContext(r.Context()).Warn("Streaming flush unsupported", zap.Error(err))
	}

	ctx, usage := domain.NewContextWithUsage(logger.WithUser(r.Context(), req.UserID))
	emit := func(chunk string) error {
		return writeEvent(w, rc, "chunk", chunkEvent{Text: chunk})
	}
	reply := s.svc.Agent.StreamTurn(ctx, req.UserID, req.Messages, emit)

	_ = writeEvent(w, rc, "done", doneEvent{
		Reply:           reply,
		Path:            reply.Path,
		EmbeddingTokens: usage.EmbeddingTokens(),
		Generations:     usage.Generations(),
	})
}

type doneEvent struct {
	chat.Reply
	Path            chat.Path `json:"path"`
	EmbeddingTokens int       `json:"embedding_tokens"`
	Generations     int       `json:"generations"`
}

func (s *Server) readChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return req, false
	}
	return req, true
}

// writeEvent writes one SSE frame: event: type\ndata: json\n\n.
func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write %s event: %w", event, err)
	}
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("flush %s event: %w", event, err)
	}
	return nil
}
