// Package lock serializes work on a single social account.
package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrLockTimeout = errors.New("timed out waiting for account lock")

// AccountLocker hands out an exclusive lock per account id. The returned
// unlock func must be called exactly once.
type AccountLocker interface {
	Lock(ctx context.Context, accountID int64) (unlock func(), err error)
}

// Local is an in-process AccountLocker. It is enough for a single replica.
type Local struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

type entry struct {
	ch      chan struct{}
	waiters int
}

func NewLocal() *Local {
	return &Local{locks: make(map[int64]*entry)}
}

func (l *Local) Lock(ctx context.Context, accountID int64) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[accountID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[accountID] = e
	}
	e.waiters++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(accountID, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(accountID, e, true) })
	}, nil
}

func (l *Local) release(accountID int64, e *entry, held bool) {
	if held {
		<-e.ch
	}
	l.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		delete(l.locks, accountID)
	}
	l.mu.Unlock()
}
