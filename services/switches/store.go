// Package switches holds the virtual switch state and the machinery that
// keeps it current: input sources, the poll scheduler, and the change
// notifier that wakes the system coordinator.
package switches

import (
	"sync"

	"servoswitch-go/errcode"
)

// Store holds the current boolean value of every virtual switch. It is the
// single source of truth for desired servo positions. Only the poll
// scheduler's input source writes it; everything else reads.
type Store struct {
	mu     sync.RWMutex
	states []bool
}

// NewStore creates a store sized to the fixed switch count.
func NewStore(n int) *Store {
	return &Store{states: make([]bool, n)}
}

// Len returns the switch count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Set updates one switch and reports whether the value actually changed.
func (s *Store) Set(index int, value bool) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.states) {
		return false, errcode.OutOfRange
	}
	if s.states[index] == value {
		return false, nil
	}
	s.states[index] = value
	return true, nil
}

// Get returns one switch value.
func (s *Store) Get(index int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.states) {
		return false, errcode.OutOfRange
	}
	return s.states[index], nil
}

// Snapshot returns a copy of all switch values.
func (s *Store) Snapshot() []bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bool, len(s.states))
	copy(out, s.states)
	return out
}
