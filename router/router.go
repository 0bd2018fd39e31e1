package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrRouteNotFound indicates no registered route matched a path.
var ErrRouteNotFound = errors.New("router: route not found")

// NotFoundError reports where resolution stopped. It matches
// ErrRouteNotFound through errors.Is.
type NotFoundError struct {
	Path     string
	Segment  string
	Position int
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Segment == "" {
		return fmt.Sprintf("router: route not found for %q", e.Path)
	}
	return fmt.Sprintf("router: route not found for %q at segment %d (%q)", e.Path, e.Position, e.Segment)
}

// Is lets errors.Is(err, ErrRouteNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrRouteNotFound
}

// Node is implemented by route types that can be resolved by Find. Pattern
// returns the path pattern (literal segments and ":name" parameters) and
// Children the nested routes resolved after the pattern is consumed.
type Node[T any] interface {
	Pattern() string
	Children() []T
}

// Params maps parameter names (without the leading ':') to the path
// segments they matched.
type Params map[string]string

// Get returns the value bound to name.
func (p Params) Get(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// Clone returns a copy of p. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Match is the outcome of a successful resolution.
type Match[T any] struct {
	Route  T
	Params Params
	Path   string
}

// Root is the single segment the root path resolves to.
const Root = "/"

// Segments splits a path on '/', dropping empty segments. The root path
// yields the single segment "/". Query and fragment suffixes are ignored and
// escaped segments are decoded.
func Segments(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == Root {
		return []string{Root}
	}
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if decoded, err := url.PathUnescape(part); err == nil {
			part = decoded
		}
		out = append(out, part)
	}
	return out
}

// IsParam reports whether a pattern segment is a parameter marker.
func IsParam(segment string) bool {
	return len(segment) > 1 && segment[0] == ':'
}

type cursor[T any] struct {
	node     T
	segments []string
	offset   int
}

func (c cursor[T]) exhausted() bool {
	return c.offset >= len(c.segments)
}

func (c cursor[T]) current() string {
	return c.segments[c.offset]
}

// Find resolves path against routes.
//
// Resolution walks the path one segment at a time without backtracking. At
// each segment, candidates whose pattern segment equals it literally are
// kept; if there are none, the first registered candidate with a parameter
// segment is kept alone and binds the value. A candidate whose pattern has
// been fully consumed offers its children for the next segment. After the
// last segment the first fully consumed candidate wins.
func Find[T Node[T]](path string, routes []T) (Match[T], error) {
	var zero Match[T]
	segments := Segments(path)
	if len(segments) == 0 {
		return zero, &NotFoundError{Path: path}
	}

	candidates := expand[T](nil, routes)
	params := Params{}
	for i, segment := range segments {
		var literal []cursor[T]
		for _, c := range candidates {
			if !c.exhausted() && c.current() == segment {
				literal = append(literal, c)
			}
		}
		next := literal
		if len(next) == 0 {
			for _, c := range candidates {
				if !c.exhausted() && IsParam(c.current()) {
					params[c.current()[1:]] = segment
					next = []cursor[T]{c}
					break
				}
			}
		}
		if len(next) == 0 {
			return zero, &NotFoundError{Path: path, Segment: segment, Position: i}
		}
		candidates = advance(next)
	}

	for _, c := range candidates {
		if c.exhausted() {
			return Match[T]{Route: c.node, Params: params, Path: path}, nil
		}
	}
	return zero, &NotFoundError{Path: path}
}

func expand[T Node[T]](into []cursor[T], routes []T) []cursor[T] {
	for _, route := range routes {
		into = append(into, cursor[T]{node: route, segments: Segments(route.Pattern())})
	}
	return into
}

func advance[T Node[T]](matched []cursor[T]) []cursor[T] {
	out := make([]cursor[T], 0, len(matched))
	for _, c := range matched {
		c.offset++
		out = append(out, c)
		if c.exhausted() {
			out = expand(out, c.node.Children())
		}
	}
	return out
}
