// Package api serves the wire query grammar over HTTP: clients submit a
// query string against a schema type and get back the normalized query or
// a coded error.
package api

import (
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/schema"
	"github.com/conduit-lang/wirequery/internal/query/wire"
	"github.com/conduit-lang/wirequery/internal/web/cache"
	"github.com/conduit-lang/wirequery/internal/web/middleware"
	"github.com/conduit-lang/wirequery/internal/web/response"
	"github.com/conduit-lang/wirequery/internal/web/router"
)

// Config configures a Handler
type Config struct {
	Registry *schema.Registry
	// CacheSize bounds the parse cache; zero uses cache.DefaultSize
	CacheSize int
	// MaxTop rejects larger $top values; zero means unlimited
	MaxTop int
	// AllowedOrigins enables CORS for the listed origins
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Handler serves the query endpoints
type Handler struct {
	registry *schema.Registry
	cache    *cache.ParseCache
	maxTop   int
	origins  []string
	logger   *zap.Logger
	router   *router.Router
}

// QueryResponse is the body of a successful normalize request
type QueryResponse struct {
	Type    string            `json:"type"`
	Query   string            `json:"query"`
	Options map[string]string `json:"options"`
}

// TypeResponse describes one schema type
type TypeResponse struct {
	Name       string             `json:"name"`
	Base       string             `json:"base,omitempty"`
	Properties []PropertyResponse `json:"properties"`
}

// PropertyResponse describes one property of a schema type
type PropertyResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// New creates a handler over cfg.Registry
func New(cfg Config) (*Handler, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("api: a schema registry is required")
	}
	if cfg.MaxTop < 0 {
		return nil, fmt.Errorf("api: max top must not be negative, got %d", cfg.MaxTop)
	}
	c, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		registry: cfg.Registry,
		cache:    c,
		maxTop:   cfg.MaxTop,
		origins:  cfg.AllowedOrigins,
		logger:   logger,
		router:   router.NewRouter(),
	}
	h.routes()
	return h, nil
}

func (h *Handler) routes() {
	r := h.router
	r.Use(h.stack()...)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) { response.RenderNotFound(w, "") })
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) { response.RenderMethodNotAllowed(w) })

	r.Get("/health", h.health)
	r.Get("/routes", h.listRoutes)
	r.Get("/stats", h.stats)
	r.Get("/types", h.listTypes)
	r.Get("/types/{name}", h.getType)
	r.Get("/types/{name}/query", h.normalize)
}

// stack is the middleware every endpoint runs behind
func (h *Handler) stack() middleware.Chain {
	chain := middleware.Chain{
		middleware.RequestID(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{Logger: h.logger, SkipPaths: []string{"/health"}}),
		middleware.Recovery(h.logger),
	}
	if len(h.origins) > 0 {
		chain = chain.With(middleware.CORS(h.origins...))
	}
	return chain
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

// Cache exposes the parse cache, e.g. for purging on shutdown
func (h *Handler) Cache() *cache.ParseCache { return h.cache }

func (h *Handler) health(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listRoutes(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, h.router.Routes())
}

func (h *Handler) stats(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) listTypes(w http.ResponseWriter, req *http.Request) {
	types := h.registry.Types()
	sort.Slice(types, func(i, j int) bool { return types[i].Name() < types[j].Name() })

	out := make([]TypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, Describe(t))
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *Handler) getType(w http.ResponseWriter, req *http.Request) {
	t, ok := h.lookup(w, req)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, Describe(t))
}

// normalize decodes the request's $-options against the named type and
// answers with the canonical encoding of the resulting query
func (h *Handler) normalize(w http.ResponseWriter, req *http.Request) {
	t, ok := h.lookup(w, req)
	if !ok {
		return
	}

	values := req.URL.Query()
	q, err := h.cache.GetOrDecode(cache.Key(t.Name(), values), func() (*ir.Query, error) {
		return wire.Decode(t, values, wire.WithRegistry(h.registry), wire.WithMaxTop(h.maxTop))
	})
	if err != nil {
		h.logger.Debug("query rejected",
			middleware.RequestIDField(req.Context()),
			zap.String("type", t.Name()),
			zap.Error(err))
		response.RenderQueryError(w, err)
		return
	}

	encoded := wire.Encode(q)
	if cache.NotModified(w, req, cache.ETag(t.Name(), encoded)) {
		return
	}

	options := make(map[string]string)
	for _, p := range ir.Params(q) {
		options[p.Name] = p.Value
	}
	response.JSON(w, http.StatusOK, &QueryResponse{
		Type:    t.Name(),
		Query:   encoded,
		Options: options,
	})
}

func (h *Handler) lookup(w http.ResponseWriter, req *http.Request) (*schema.Type, bool) {
	name := router.PathParam(req, "name")
	t, ok := h.registry.Lookup(name)
	if !ok || t.Kind() != schema.KindComplex {
		response.RenderNotFound(w, fmt.Sprintf("unknown type %s", name))
		return nil, false
	}
	return t, true
}

// Describe converts a schema type into its response form
func Describe(t *schema.Type) TypeResponse {
	out := TypeResponse{Name: t.Name(), Properties: []PropertyResponse{}}
	if b := t.Base(); b != nil {
		out.Base = b.Name()
	}
	for _, p := range t.Properties() {
		out.Properties = append(out.Properties, PropertyResponse{
			Name: p.Name,
			Type: p.Type.String(),
		})
	}
	return out
}
