package tools

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/logger"
	"github.com/kailas-cloud/campusagent/internal/metrics"
)

// Router dispatches tool calls. Execution failures come back as tool.Result, never as errors.
type Router struct {
	registry *Registry
	executor tool.Executor
	handlers map[string]tool.Handler
}

// NewRouter creates a router. executor may be nil when no external tools are configured.
func NewRouter(registry *Registry, executor tool.Executor) *Router {
	return &Router{registry: registry, executor: executor, handlers: make(map[string]tool.Handler)}
}

// Handle binds an in-process handler to a registered internal tool.
// Call it during wiring only; the handler table is not guarded for concurrent writes.
func (r *Router) Handle(name string, h tool.Handler) error {
	def, err := r.registry.Lookup(name)
	if err != nil {
		return err
	}
	if !def.IsInternal() {
		return fmt.Errorf("%w: %s is served by external action %s", domain.ErrInvalidTool, name, def.ExternalActionID)
	}
	r.handlers[name] = h
	return nil
}

// Registry returns the manifest the router resolves against.
func (r *Router) Registry() *Registry { return r.registry }

// Dispatch resolves name and runs it for userID.
func (r *Router) Dispatch(ctx context.Context, userID, name string, params map[string]any) (res tool.Result) {
	if params == nil {
		params = map[string]any{}
	}
	log := logger.FromContext(ctx).With(zap.String("tool", name), zap.String("user_id", userID))

	defer func() {
		if p := recover(); p != nil {
			log.Error("Tool panicked", zap.Any("panic", p))
			res = tool.Fail(fmt.Errorf("%w: tool %s panicked: %v", domain.ErrExternalExecution, name, p))
		}
		metrics.ToolDispatchTotal.WithLabelValues(metricName(r.registry, name), outcome(res)).Inc()
	}()

	def, err := r.registry.Lookup(name)
	if err != nil {
		log.Warn("Unknown tool requested")
		return tool.Fail(err)
	}

	if def.IsInternal() {
		return r.dispatchInternal(ctx, userID, def, params)
	}
	return r.dispatchExternal(ctx, userID, def, params, log)
}

func (r *Router) dispatchInternal(
	ctx context.Context, userID string, def tool.Definition, params map[string]any,
) tool.Result {
	h, ok := r.handlers[def.Name]
	if !ok {
		return tool.Fail(fmt.Errorf("%w: %s", domain.ErrInternalToolNotImplemented, def.Name))
	}
	data, err := h(ctx, userID, params)
	if err != nil {
		return tool.Fail(err)
	}
	return tool.OK(data)
}

func (r *Router) dispatchExternal(
	ctx context.Context, userID string, def tool.Definition, params map[string]any, log *zap.Logger,
) tool.Result {
	if r.executor == nil {
		return tool.Fail(fmt.Errorf("%w: no executor configured for %s", domain.ErrExternalExecution, def.ExternalActionID))
	}

	res, err := r.executor.Execute(ctx, userID, def.ExternalActionID, params)
	if err != nil {
		log.Warn("External tool failed", zap.String("action", def.ExternalActionID), zap.Error(err))
		return tool.Fail(err)
	}
	return res
}

// metricName keeps label cardinality bounded to the manifest.
func metricName(reg *Registry, name string) string {
	if _, err := reg.Lookup(name); err != nil {
		return "unknown"
	}
	return name
}

func outcome(res tool.Result) string {
	err := res.Err()
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrToolNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInternalToolNotImplemented):
		return "not_implemented"
	case errors.Is(err, domain.ErrNoActiveConnection):
		return "no_connection"
	}
	return "error"
}
