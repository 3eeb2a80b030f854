// Package lock provides per-key mutual exclusion.
package lock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex hands out one lock per key. Entries are dropped once no goroutine holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

func (k *KeyedMutex) acquire(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}

	e.refs++

	return e
}

func (k *KeyedMutex) drop(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Lock blocks until key is free and returns the unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	unlock, _ := k.LockContext(context.Background(), key)

	return unlock
}

// LockContext blocks until key is free or ctx is done.
// The returned unlock function is safe to call more than once.
func (k *KeyedMutex) LockContext(ctx context.Context, key string) (func(), error) {
	e := k.acquire(key)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.drop(key, e)

		return func() {}, ctx.Err()
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-e.ch
			k.drop(key, e)
		})
	}, nil
}

// TryLock takes key if it is free.
func (k *KeyedMutex) TryLock(key string) (func(), bool) {
	e := k.acquire(key)

	select {
	case e.ch <- struct{}{}:
	default:
		k.drop(key, e)

		return func() {}, false
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-e.ch
			k.drop(key, e)
		})
	}, true
}

// Len returns the number of keys currently held or waited on.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.entries)
}
