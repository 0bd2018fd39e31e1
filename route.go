package nanny

import (
	"github.com/goliatone/go-nanny/router"
)

// View turns state into whatever the Renderer draws.
type View func(State) (any, error)

// Template adapts an infallible view function.
func Template(fn func(State) any) View {
	if fn == nil {
		return nil
	}
	return func(s State) (any, error) {
		return fn(s), nil
	}
}

// Route maps a path pattern to a title, an optional state update run on
// navigation and an optional content view. Nested Routes are matched after
// Path is fully consumed.
type Route struct {
	Path   string
	Title  string
	Update func(router.Params) Transformer
	View   View
	Routes []Route
}

func (r Route) Pattern() string  { return r.Path }
func (r Route) Children() []Route { return r.Routes }

// ResolvedRoute is a matched route with the parameters bound for the path.
type ResolvedRoute struct {
	Route  Route
	Params router.Params
	Path   string
}

// FindRoute resolves path against routes. The error matches
// router.ErrRouteNotFound when nothing matches.
func FindRoute(path string, routes []Route) (ResolvedRoute, error) {
	m, err := router.Find(path, routes)
	if err != nil {
		return ResolvedRoute{Path: path}, err
	}
	return ResolvedRoute{Route: m.Route, Params: m.Params, Path: m.Path}, nil
}

// Renderer draws a view tree into element.
type Renderer interface {
	Render(tree any, element any) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(tree any, element any) error

func (f RenderFunc) Render(tree any, element any) error {
	if f == nil {
		return nil
	}
	return f(tree, element)
}

// Navigator is the host's history capability. router.MemoryNavigator
// implements it for tests and headless hosts.
type Navigator interface {
	PushPath(path string) error
	OnExternalNavigation(fn func(path string)) (unsubscribe func())
}
