// Package middleware wraps a RecordStore with cross-cutting behavior:
// per-user key namespacing and read caching for the auto-launch gate's
// hot path. Middlewares compose by plain nesting; order matters, so
// namespace before cache when combining both.
package middleware

import "github.com/docentlabs/docent/pkg/ports"

// Middleware allows wrapping a RecordStore to add behavior.
type Middleware func(ports.RecordStore) ports.RecordStore

// Chain applies middlewares left to right, so the first one listed sees
// calls first.
func Chain(store ports.RecordStore, middlewares ...Middleware) ports.RecordStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
