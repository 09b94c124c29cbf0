package coordinator

import (
	"context"
	"sync"
)

// Locker serializes writers per room. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, roomID string) (unlock func(), err error)
}

// LocalLocker is a per-process lock table. Entries are dropped once no goroutine holds
// or waits on them, so idle rooms cost nothing.
type LocalLocker struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an empty lock table.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{rooms: make(map[string]*roomLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	rl := l.rooms[roomID]
	if rl == nil {
		rl = &roomLock{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, rl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-rl.sem
			l.release(roomID, rl)
		})
	}, nil
}

func (l *LocalLocker) release(roomID string, rl *roomLock) {
	l.mu.Lock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.rooms, roomID)
	}
	l.mu.Unlock()
}

// size reports tracked rooms; used by tests.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
