// Package profiling serves the runtime pprof endpoints. They expose stack
// and heap contents, so serve them on a separate, non-public address.
package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/go-chi/chi/v5"
)

// Config holds profiling configuration
type Config struct {
	// Path is the URL prefix for the endpoints (default: "/debug/pprof")
	Path string

	// BlockRate sets the block profiling rate; zero leaves it disabled
	BlockRate int

	// MutexFraction sets the mutex profiling fraction; zero leaves it disabled
	MutexFraction int
}

// DefaultConfig returns default profiling configuration
func DefaultConfig() *Config {
	return &Config{
		Path:          "/debug/pprof",
		BlockRate:     1,
		MutexFraction: 1,
	}
}

// RegisterRoutes mounts the pprof endpoints on router
func RegisterRoutes(router chi.Router, config *Config) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BlockRate > 0 {
		runtime.SetBlockProfileRate(config.BlockRate)
	}
	if config.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(config.MutexFraction)
	}

	router.Route(config.Path, func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			r.Handle("/"+name, pprof.Handler(name))
		}
	})
}

// Handler returns a router serving only the pprof endpoints
func Handler(config *Config) http.Handler {
	router := chi.NewRouter()
	RegisterRoutes(router, config)
	return router
}
