package middleware

import (
	"net/http"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Chain is an ordered middleware stack; the first entry sees the request
// first.
type Chain []Middleware

// Then wraps handler with the stack
func (c Chain) Then(handler http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		handler = c[i](handler)
	}
	return handler
}

// With returns a copy of c with more appended; c itself is not modified.
func (c Chain) With(more ...Middleware) Chain {
	out := make(Chain, 0, len(c)+len(more))
	return append(append(out, c...), more...)
}
