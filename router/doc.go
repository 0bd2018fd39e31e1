// Package router resolves navigation paths against an ordered list of
// routes.
//
// Routes are any type implementing Node: a path pattern made of literal
// segments and ":name" parameters, plus optional nested child routes. The
// matcher is deliberately simple and never backtracks:
//
//   - literal segments always win over parameters at the same position
//   - among parameters at the same position, the first registered wins
//   - a fully consumed pattern hands over to its children
//
// # Basic Usage
//
//	type page struct {
//	    path  string
//	    title string
//	    subs  []page
//	}
//
//	func (p page) Pattern() string  { return p.path }
//	func (p page) Children() []page { return p.subs }
//
//	routes := []page{{path: "/"}, {path: "/users/:id", title: "User"}}
//
//	m, err := router.Find("/users/42", routes)
//	if errors.Is(err, router.ErrRouteNotFound) {
//	    // render a not-found view
//	}
//	fmt.Println(m.Route.title, m.Params["id"]) // User 42
//
// # History
//
// History and MemoryNavigator model browser-style navigation for headless
// hosts and tests: PushPath records user navigation silently, while Back and
// Forward notify subscribers, mirroring popstate.
package router
