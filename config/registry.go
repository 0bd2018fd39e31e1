package config

import (
	"fmt"
	"sort"
	"sync"

	nanny "github.com/goliatone/go-nanny"
	"github.com/goliatone/go-nanny/router"
)

// UpdateFunc builds the transformer a route runs on each render.
type UpdateFunc func(router.Params) nanny.Transformer

// Registry resolves the names used in configuration files.
type Registry struct {
	mu        sync.RWMutex
	views     map[string]nanny.View
	updates   map[string]UpdateFunc
	renderers map[string]nanny.Renderer
}

func NewRegistry() *Registry {
	return &Registry{
		views:     map[string]nanny.View{},
		updates:   map[string]UpdateFunc{},
		renderers: map[string]nanny.Renderer{},
	}
}

func (r *Registry) RegisterView(name string, view nanny.View) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[name] = view
	return r
}

func (r *Registry) RegisterUpdate(name string, update UpdateFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[name] = update
	return r
}

func (r *Registry) RegisterRenderer(name string, renderer nanny.Renderer) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[name] = renderer
	return r
}

func (r *Registry) View(name string) (nanny.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view, ok := r.views[name]
	if !ok {
		return nil, unknown("view", name, r.views)
	}
	return view, nil
}

func (r *Registry) Update(name string) (UpdateFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	update, ok := r.updates[name]
	if !ok {
		return nil, unknown("update", name, r.updates)
	}
	return update, nil
}

func (r *Registry) Renderer(name string) (nanny.Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[name]
	if !ok {
		return nil, unknown("renderer", name, r.renderers)
	}
	return renderer, nil
}

func unknown[V any](kind, name string, known map[string]V) error {
	names := make([]string, 0, len(known))
	for n := range known {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Errorf("%w: %s %q (known: %v)", ErrUnknownName, kind, name, names)
}
