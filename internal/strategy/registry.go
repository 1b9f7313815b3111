package strategy

import (
	"sort"
	"strings"
	"sync"
)

// Registry resolves strategy names to engines. Unknown names resolve to the
// default engine. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	engines  map[string]*Engine
	aliases  map[string]string
	fallback *Engine
}

// NewRegistry returns a registry holding the given engines. The first engine
// is the default; with none given, basic strategy is registered.
func NewRegistry(engines ...*Engine) *Registry {
	if len(engines) == 0 {
		engines = []*Engine{NewBasic()}
	}
	r := &Registry{
		engines:  make(map[string]*Engine, len(engines)),
		aliases:  map[string]string{"basic": Basic},
		fallback: engines[0],
	}
	for _, e := range engines {
		r.engines[e.Name()] = e
	}
	return r
}

// Alias makes alias resolve to the engine registered as name
func (r *Registry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[normalizeName(alias)] = name
}

// SetDefault changes the engine used for unknown names. It reports false when
// no engine is registered under name.
func (r *Registry) SetDefault(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.lookup(name)
	if !ok {
		return false
	}
	r.fallback = e
	return true
}

// Get returns the engine for name. ok is false when the name was unknown and
// the default engine was returned instead. An empty name selects the default.
func (r *Registry) Get(name string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strings.TrimSpace(name) == "" {
		return r.fallback, true
	}
	if e, ok := r.lookup(name); ok {
		return e, true
	}
	return r.fallback, false
}

// Default returns the engine used for unknown names
func (r *Registry) Default() *Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Names returns the registered strategy names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup expects r.mu to be held
func (r *Registry) lookup(name string) (*Engine, bool) {
	name = normalizeName(name)
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	e, ok := r.engines[name]
	return e, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
