package usecase

import (
	"context"
	"errors"
	"sync"
)

var errNilFactory = errors.New("otp: capability factory is nil")

// lazy memoizes the first successful result of factory. A failed build is not
// cached, so the next call tries again.
type lazy[T any] struct {
	mu      sync.Mutex
	factory func(ctx context.Context) (T, error)
	value   T
	ready   bool
}

func newLazy[T any](factory func(ctx context.Context) (T, error)) *lazy[T] {
	return &lazy[T]{factory: factory}
}

func (l *lazy[T]) get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return l.value, nil
	}

	var zero T
	if l.factory == nil {
		return zero, errNilFactory
	}

	v, err := l.factory(ctx)
	if err != nil {
		return zero, err
	}

	l.value = v
	l.ready = true

	return v, nil
}
