package services

import "sync"

// PlayerLocks serializes mutations per player id. Every read-modify-write
// of a Player record must hold that player's lock; cross-player credits
// (signup bonus, commission) always lock the acting player before the
// referrer, so lock order is acyclic.
type PlayerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPlayerLocks() *PlayerLocks {
	return &PlayerLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for id and returns its release func.
func (l *PlayerLocks) Lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
