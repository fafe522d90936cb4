// Package tools holds the tool catalog and routes named tool calls to their executor.
package tools

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
)

// Registry is the tool manifest. Definitions are immutable once registered.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]tool.Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]tool.Definition)}
}

// Register adds a definition. A second definition under the same name fails with domain.ErrDuplicateTool.
func (r *Registry) Register(def tool.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTool, def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister registers definitions at wiring time and panics on the first failure.
func (r *Registry) MustRegister(defs ...tool.Definition) *Registry {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(fmt.Sprintf("register tool: %v", err))
		}
	}
	return r
}

// Lookup returns the definition or domain.ErrToolNotFound.
func (r *Registry) Lookup(name string) (tool.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return tool.Definition{}, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	return def, nil
}

// Definitions returns the manifest in registration order.
func (r *Registry) Definitions() []tool.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tool.Definition, len(r.order))
	for i, name := range r.order {
		out[i] = r.defs[name]
	}
	return out
}

// Declarations renders the manifest for a generative backend.
func (r *Registry) Declarations() []domain.FunctionDeclaration {
	defs := r.Definitions()
	out := make([]domain.FunctionDeclaration, len(defs))
	for i := range defs {
		out[i] = defs[i].Declaration()
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
