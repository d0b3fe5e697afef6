// Package middleware provides interceptors for entry dispatch pipelines.
package middleware

import (
	"github.com/pharos-watch/pharos/entry"
)

// Handler processes an entry and returns a (possibly modified) entry.
// Returning nil signals that the entry should be dropped.
type Handler func(e entry.Entry) *entry.Entry

// Middleware wraps a Handler, adding cross-cutting behavior.
type Middleware interface {
	// Wrap returns a new Handler that decorates the given inner handler.
	Wrap(next Handler) Handler
}

// Chain composes multiple middlewares into a single Handler, applying them
// in the order provided (first middleware is outermost).
func Chain(handler Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i].Wrap(handler)
	}
	return handler
}
