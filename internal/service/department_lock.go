package service

import (
	"context"
	"sync"
)

// departmentLocks serialises generator runs per department while letting
// different departments proceed in parallel.
type departmentLocks struct {
	mu      sync.Mutex
	entries map[string]*departmentLock
}

type departmentLock struct {
	sem  chan struct{}
	refs int
}

func newDepartmentLocks() *departmentLocks {
	return &departmentLocks{entries: make(map[string]*departmentLock)}
}

// Acquire blocks until the department is free or ctx is done. The returned
// release func must be called exactly once.
func (l *departmentLocks) Acquire(ctx context.Context, departmentID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[departmentID]
	if !ok {
		entry = &departmentLock{sem: make(chan struct{}, 1)}
		l.entries[departmentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(departmentID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.unref(departmentID, entry)
		})
	}, nil
}

func (l *departmentLocks) unref(departmentID string, entry *departmentLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, departmentID)
	}
}

func (l *departmentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
