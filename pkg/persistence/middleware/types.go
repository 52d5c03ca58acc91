// Package middleware wraps trace stores with extra behavior: sealing traces
// with AES-GCM and redacting sensitive text before it is persisted.
package middleware

import "github.com/aretw0/steprelay/pkg/ports"

// Middleware allows wrapping a TraceStore to add behavior.
type Middleware func(ports.TraceStore) ports.TraceStore

// Chain wraps store with mws. The first middleware is the outermost one.
func Chain(store ports.TraceStore, mws ...Middleware) ports.TraceStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
