package authz

import (
	"strings"
	"sync"
)

// Registry holds the declared protected operations of the application.
// Feature packages contribute their declarations during wiring; the
// Synchronizer diffs the result against the permission catalog. The
// registry is owned by the process context and injected, never a
// package-level singleton.
type Registry struct {
	mu    sync.Mutex
	order []string
	ops   map[string]ProtectedOperation
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]ProtectedOperation)}
}

// Register adds protected-operation declarations. Names are unique; the
// first declaration of a name wins, later duplicates are ignored so two
// routes can share one permission.
func (r *Registry) Register(ops ...ProtectedOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range ops {
		op.Name = strings.TrimSpace(op.Name)
		if op.Name == "" {
			continue
		}
		if _, ok := r.ops[op.Name]; ok {
			continue
		}
		r.ops[op.Name] = op
		r.order = append(r.order, op.Name)
	}
}

// Operations returns the declarations in registration order.
func (r *Registry) Operations() []ProtectedOperation {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]ProtectedOperation, 0, len(r.order))
	for _, name := range r.order {
		ops = append(ops, r.ops[name])
	}
	return ops
}
