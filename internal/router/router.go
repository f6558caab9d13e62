// Package router dispatches requests to handlers by method and path.
//
// A route pattern is a literal path that may contain one {name} wildcard.
// Routes are identified by method token + pattern ("GET/files/{file_path}")
// and are tried in registration order; the first match wins, with no
// preference for static routes over wildcard ones. The wildcard captures one
// or more characters greedily and may span "/".
//
// A Router is built with Add before serving starts and is read-only after
// that, so Execute can be called from any number of goroutines.
package router

import (
	"regexp"
	"strings"

	"wirehttp/internal/app"
	werrors "wirehttp/internal/errors"
	"wirehttp/internal/wire"
)

// HandlerFunc handles a routed request. capture is the wildcard value, or ""
// for static routes and the default handler.
type HandlerFunc func(req *wire.Request, capture string, ctx *app.Context) (*wire.Response, error)

// wildcardToken matches a {name} placeholder
var wildcardToken = regexp.MustCompile(`\{[^{}]*\}`)

// Route is a registered method+pattern with its handler
type Route struct {
	id      string
	method  wire.Method
	pattern string
	handler HandlerFunc
	matcher *regexp.Regexp // nil for static routes
}

// RouteInfo describes a route for listings
type RouteInfo struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Method   string `json:"method" yaml:"method" toml:"method"`
	Pattern  string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Wildcard bool   `json:"wildcard" yaml:"wildcard" toml:"wildcard"`
}

// Router holds the ordered route table, the default handler and the shared context
type Router struct {
	routes   []*Route
	ids      map[string]struct{}
	fallback HandlerFunc
	ctx      *app.Context
}

// New creates a router. A nil fallback answers 404 Not Found.
func New(fallback HandlerFunc, ctx *app.Context) *Router {
	if fallback == nil {
		fallback = notFound
	}
	return &Router{
		ids:      make(map[string]struct{}),
		fallback: fallback,
		ctx:      ctx,
	}
}

// RouteID returns the identifier used for uniqueness and matching
func RouteID(method wire.Method, path string) string {
	return method.String() + path
}

// Add registers a route. A duplicate method+pattern pair or a malformed
// pattern is rejected and leaves the table unchanged.
func (r *Router) Add(method wire.Method, pattern string, handler HandlerFunc) error {
	id := RouteID(method, pattern)
	if _, exists := r.ids[id]; exists {
		return werrors.Newf(werrors.DuplicateRoute, "route %s already registered", id).
			WithDetails(RouteInfo{ID: id, Method: method.String(), Pattern: pattern})
	}

	matcher, err := compile(id)
	if err != nil {
		return err.WithDetails(RouteInfo{ID: id, Method: method.String(), Pattern: pattern})
	}

	r.routes = append(r.routes, &Route{
		id:      id,
		method:  method,
		pattern: pattern,
		handler: handler,
		matcher: matcher,
	})
	r.ids[id] = struct{}{}
	return nil
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler HandlerFunc) error {
	return r.Add(wire.MethodGet, pattern, handler)
}

// Post registers a POST route
func (r *Router) Post(pattern string, handler HandlerFunc) error {
	return r.Add(wire.MethodPost, pattern, handler)
}

// compile builds the matcher for a route identifier. Static identifiers
// return a nil matcher and are compared byte for byte.
func compile(id string) (*regexp.Regexp, *werrors.Error) {
	opens := strings.Count(id, "{")
	closes := strings.Count(id, "}")
	tokens := wildcardToken.FindAllStringIndex(id, -1)

	if opens == 0 && closes == 0 {
		return nil, nil
	}
	if opens != closes || len(tokens) != opens {
		return nil, werrors.Newf(werrors.InvalidPattern, "unbalanced braces in %q", id)
	}
	if len(tokens) > 1 {
		return nil, werrors.Newf(werrors.InvalidPattern, "%q has %d wildcards, at most one is allowed", id, len(tokens))
	}

	start, end := tokens[0][0], tokens[0][1]
	if end-start == 2 {
		return nil, werrors.Newf(werrors.InvalidPattern, "wildcard in %q has no name", id)
	}

	expr := "^" + regexp.QuoteMeta(id[:start]) + "(.+)" + regexp.QuoteMeta(id[end:]) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, werrors.New(werrors.InvalidPattern, "cannot compile "+id, err)
	}
	return re, nil
}

// match reports whether the route matches identifier, with the capture
func (rt *Route) match(identifier string) (string, bool) {
	if rt.matcher == nil {
		return "", rt.id == identifier
	}
	groups := rt.matcher.FindStringSubmatch(identifier)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}

// Match finds the first route, in registration order, matching method and
// target. It returns the default handler with an empty capture and false
// when nothing matches.
func (r *Router) Match(method wire.Method, target string) (HandlerFunc, string, bool) {
	identifier := RouteID(method, target)
	for _, rt := range r.routes {
		if capture, ok := rt.match(identifier); ok {
			return rt.handler, capture, true
		}
	}
	return r.fallback, "", false
}

// Execute routes the request and runs the selected handler. It never fails:
// a handler error, or a nil response, becomes a bare 500 response and the
// error detail is dropped.
func (r *Router) Execute(method wire.Method, target string, req *wire.Request) *wire.Response {
	handler, capture, _ := r.Match(method, target)

	resp, err := handler(req, capture, r.ctx)
	if err != nil || resp == nil {
		return wire.InternalServerError()
	}
	return resp
}

// Routes lists the registered routes in registration order
func (r *Router) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, RouteInfo{
			ID:       rt.id,
			Method:   rt.method.String(),
			Pattern:  rt.pattern,
			Wildcard: rt.matcher != nil,
		})
	}
	return out
}

// Len returns the number of registered routes
func (r *Router) Len() int {
	return len(r.routes)
}

// Context returns the shared application context handed to handlers
func (r *Router) Context() *app.Context {
	return r.ctx
}

func notFound(_ *wire.Request, _ string, _ *app.Context) (*wire.Response, error) {
	return wire.NotFound(), nil
}
