package agenda

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Locker serializes mutations per patient so that two concurrent
// schedule or cancel calls for the same patient cannot both validate
// against a stale snapshot. The API deployment uses the Redis-backed
// implementation; the single-process console app and the tests use
// the in-process one below.
type Locker interface {
	WithPatientLock(ctx context.Context, patientID uuid.UUID, fn func(ctx context.Context) error) error
}

type mutexLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*patientMutex
}

type patientMutex struct {
	sync.Mutex
	refs int
}

// NewMutexLocker returns an in-process Locker. Unlike the Redis locker
// it blocks instead of failing when the patient is already locked.
func NewMutexLocker() Locker {
	return &mutexLocker{locks: make(map[uuid.UUID]*patientMutex)}
}

func (l *mutexLocker) WithPatientLock(ctx context.Context, patientID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	pm, ok := l.locks[patientID]
	if !ok {
		pm = &patientMutex{}
		l.locks[patientID] = pm
	}
	pm.refs++
	l.mu.Unlock()

	pm.Lock()
	defer func() {
		pm.Unlock()

		l.mu.Lock()
		pm.refs--
		if pm.refs == 0 {
			delete(l.locks, patientID)
		}
		l.mu.Unlock()
	}()

	return fn(ctx)
}
