package attributes

import (
	"slices"
	"strings"
	"sync"
)

// Declarer is implemented by record types that carry their own translatable
// declaration.
type Declarer interface {
	TranslatableAttributes() []any
}

// Registry caches resolved definitions per model type. Definitions are
// computed once at registration and shared by every instance of the type.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register resolves decl for modelType and caches the result, replacing any
// previous definition.
func (r *Registry) Register(modelType string, decl ...any) (*Definition, error) {
	modelType = strings.TrimSpace(modelType)
	if modelType == "" {
		return nil, ErrModelTypeRequired
	}
	def, err := Resolve(modelType, decl)
	if err != nil {
		return nil, err
	}
	r.store(def)
	return def, nil
}

// RegisterDefinition caches an already resolved definition.
func (r *Registry) RegisterDefinition(def *Definition) error {
	if def == nil || def.ModelType() == "" {
		return ErrModelTypeRequired
	}
	r.store(def)
	return nil
}

// Lookup returns the cached definition for modelType.
func (r *Registry) Lookup(modelType string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[strings.TrimSpace(modelType)]
	return def, ok
}

// Resolve returns the cached definition for modelType, registering the
// declaration exposed by declarer on first use.
func (r *Registry) Resolve(modelType string, declarer any) (*Definition, error) {
	if def, ok := r.Lookup(modelType); ok {
		return def, nil
	}
	source, ok := declarer.(Declarer)
	if !ok {
		return nil, &DeclarationError{Index: -1, Value: declarer, Reason: "model type " + modelType + " is not registered"}
	}
	return r.Register(modelType, source.TranslatableAttributes()...)
}

// Types lists registered model types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for modelType := range r.defs {
		out = append(out, modelType)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) store(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs == nil {
		r.defs = make(map[string]*Definition)
	}
	r.defs[def.ModelType()] = def
}
