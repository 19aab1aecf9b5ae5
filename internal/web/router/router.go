package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/wirequery/internal/web/middleware"
)

// Router registers routes on chi and records them for introspection
type Router struct {
	mux    chi.Router
	routes []*RouteInfo
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method     string   `json:"method"`
	Pattern    string   `json:"pattern"`
	Parameters []string `json:"parameters,omitempty"`
}

// NewRouter creates a new Router instance
func NewRouter() *Router {
	return &Router{mux: chi.NewRouter()}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware; it must be called before any route is registered
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		r.mux.Use(m)
	}
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc) {
	r.mux.Get(pattern, handler)
	r.record(http.MethodGet, pattern)
}

// Post registers a POST route
func (r *Router) Post(pattern string, handler http.HandlerFunc) {
	r.mux.Post(pattern, handler)
	r.record(http.MethodPost, pattern)
}

func (r *Router) record(method, pattern string) {
	r.routes = append(r.routes, &RouteInfo{
		Method:     method,
		Pattern:    pattern,
		Parameters: extractParameters(pattern),
	})
}

// Routes returns the registered routes in registration order
func (r *Router) Routes() []*RouteInfo {
	return r.routes
}

// NotFound sets the handler for 404 Not Found
func (r *Router) NotFound(handler http.HandlerFunc) {
	r.mux.NotFound(handler)
}

// MethodNotAllowed sets the handler for 405 Method Not Allowed
func (r *Router) MethodNotAllowed(handler http.HandlerFunc) {
	r.mux.MethodNotAllowed(handler)
}

// PathParam returns a URL path parameter of the matched route
func PathParam(req *http.Request, name string) string {
	return chi.URLParam(req, name)
}

// extractParameters lists the {name} segments of a route pattern
func extractParameters(pattern string) []string {
	var params []string
	for _, part := range strings.Split(pattern, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := strings.Trim(part, "{}")
			// chi allows {name:regexp}
			if i := strings.IndexByte(name, ':'); i >= 0 {
				name = name[:i]
			}
			params = append(params, name)
		}
	}
	return params
}
