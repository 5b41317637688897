// Package ctxval stores mutable values on a context so that middlewares
// further down the chain can enrich what was set further up.
package ctxval

import (
	"context"
	"sync"
)

func Wrap(ctx context.Context) context.Context {
	if _, ok := getStore(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, defKey, newStore(ctx))
}

func IsWrapped(ctx context.Context) bool {
	_, ok := getStore(ctx)
	return ok
}

func Set[K comparable, V any](ctx context.Context, k K, v V) {
	s, ok := getStore(ctx)
	if !ok {
		return
	}
	s.m.Lock()
	defer s.m.Unlock()
	s.storage = context.WithValue(s.storage, k, v)
}

func Get[K comparable, V any](ctx context.Context, k K) (V, bool) {
	s, ok := getStore(ctx)
	if !ok {
		return *new(V), false
	}
	s.m.Lock()
	defer s.m.Unlock()
	v, ok := s.storage.Value(k).(V)
	return v, ok
}

// Update replaces the value of k with fn(current) under a single lock.
func Update[K comparable, V any](ctx context.Context, k K, fn func(V) V) {
	s, ok := getStore(ctx)
	if !ok {
		return
	}
	s.m.Lock()
	defer s.m.Unlock()
	cur, _ := s.storage.Value(k).(V)
	s.storage = context.WithValue(s.storage, k, fn(cur))
}

type ctxKey struct{}

var defKey = ctxKey{}

type store struct {
	// few values per request, a context chain is enough
	storage context.Context
	m       sync.Mutex
}

func getStore(ctx context.Context) (*store, bool) {
	s, ok := ctx.Value(defKey).(*store)
	return s, ok
}

func newStore(ctx context.Context) *store {
	return &store{storage: ctx}
}
