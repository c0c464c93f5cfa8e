// Package lock provides the critical section that makes each exported
// domain operation atomic with respect to the others.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// Unlock releases a lock obtained from a Locker. It must be called exactly once.
type Unlock func()

// Locker hands out exclusive, named critical sections.
type Locker interface {
	Lock(ctx context.Context, name string) (Unlock, error)
}

// Local serializes callers inside one process.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// Lock blocks until name is free or ctx is done.
func (l *Local) Lock(ctx context.Context, name string) (Unlock, error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lock %s: %w", name, ctx.Err())
	}
}
