package tools

import (
	"fmt"
	"sync"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

type entry struct {
	descriptor *ToolDescriptor
	handler    Handler
}

// Registry holds tool descriptors and their handlers in registration order.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]entry
	order     []string
	validator *SchemaValidator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]entry),
		validator: NewSchemaValidator(),
	}
}

// Register adds a tool. The input schema must compile.
func (r *Registry) Register(descriptor *ToolDescriptor, handler Handler) error {
	if descriptor == nil || descriptor.Name == "" {
		return ErrToolNameRequired
	}
	if len(descriptor.InputSchema) > 0 {
		if err := r.validator.Compile(descriptor.InputSchema); err != nil {
			return fmt.Errorf("tool %s: invalid input schema: %w", descriptor.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[descriptor.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, descriptor.Name)
	}
	r.tools[descriptor.Name] = entry{descriptor: descriptor, handler: handler}
	r.order = append(r.order, descriptor.Name)
	return nil
}

// Get returns the descriptor for name, or nil.
func (r *Registry) Get(name string) *ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.tools[name]; ok {
		return e.descriptor
	}
	return nil
}

// List returns tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Defs returns the declarations to announce to the model.
func (r *Registry) Defs() []types.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]types.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].descriptor.Def())
	}
	return defs
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e, ok
}
