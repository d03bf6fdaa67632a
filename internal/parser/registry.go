package parser

import "github.com/cmmoran/metareflect/pkg/model"

// Registry maps normalized type names to the node that declared them. A
// name is registered once; later declarations of it are skipped.
type Registry struct {
	byName map[string]*model.Node
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*model.Node)}
}

// Register records n under name. It reports false, and keeps the first
// node, when name is already registered.
func (r *Registry) Register(name string, n *model.Node) bool {
	if _, ok := r.byName[name]; ok {
		return false
	}
	r.byName[name] = n
	r.order = append(r.order, name)
	return true
}

func (r *Registry) Lookup(name string) (*model.Node, bool) {
	n, ok := r.byName[name]
	return n, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
