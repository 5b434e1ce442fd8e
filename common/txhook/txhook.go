// Package txhook lets code running inside a store transaction register compensating
// actions for side effects the transaction itself cannot roll back.
package txhook

import (
	"context"
	"sync"
)

type ctxKey struct{}

// Hooks collects rollback callbacks of one transaction.
type Hooks struct {
	mu        sync.Mutex
	callbacks []func()
	done      bool
}

// Begin returns a context carrying a fresh Hooks.
func Begin(ctx context.Context) (context.Context, *Hooks) {
	h := &Hooks{}
	return context.WithValue(ctx, ctxKey{}, h), h
}

// OnRollback registers fn to run if the transaction of ctx rolls back. It reports false when
// ctx carries no transaction, in which case the caller owns the side effect.
func OnRollback(ctx context.Context, fn func()) bool {
	h, ok := ctx.Value(ctxKey{}).(*Hooks)
	if !ok || h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.callbacks = append(h.callbacks, fn)
	return true
}

// InTransaction reports whether ctx belongs to an open transaction.
func InTransaction(ctx context.Context) bool {
	h, ok := ctx.Value(ctxKey{}).(*Hooks)
	return ok && h != nil
}

// Rollback runs the registered callbacks newest first.
func (h *Hooks) Rollback() {
	h.mu.Lock()
	callbacks := h.callbacks
	h.callbacks, h.done = nil, true
	h.mu.Unlock()
	for i := len(callbacks) - 1; i >= 0; i-- {
		callbacks[i]()
	}
}

// Commit drops the callbacks.
func (h *Hooks) Commit() {
	h.mu.Lock()
	h.callbacks, h.done = nil, true
	h.mu.Unlock()
}
