// Package loadslot holds the result of an asynchronous fetch in a cell that
// a render loop can read at any time without waiting for the fetch.
package loadslot

import (
	"sync"
)

type Status int

const (
	// StatusEmpty means no load was ever started.
	StatusEmpty Status = iota
	StatusFetching
	StatusReady
	// StatusFailed means the most recent load ended with an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusFetching:
		return "fetching"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Policy decides what happens when loads into the same slot overlap.
type Policy int

const (
	// LastCompletedWins stores every completion; the load that finishes
	// last is what the slot ends up holding, even if it started first.
	LastCompletedWins Policy = iota
	// LatestStartedWins drops completions of loads that were superseded by
	// a newer load before they finished.
	LatestStartedWins
)

// Snapshot is a copy of a slot's state. Value is only meaningful when
// Status is StatusReady, Err only when it is StatusFailed.
//
// Generation counts the loads started on the slot. Revision counts every
// change of contents, so two snapshots with equal revisions hold the same
// value.
type Snapshot[T any] struct {
	Status     Status
	Value      T
	Err        error
	Generation uint64
	Revision   uint64
}

func (s Snapshot[T]) Ready() bool { return s.Status == StatusReady }

// Slot is a mutex-guarded Snapshot. The zero value is an empty slot with
// the LastCompletedWins policy.
type Slot[T any] struct {
	mu     sync.Mutex
	name   string
	policy Policy
	state  Snapshot[T]
}

type Option func(*slotOptions)

type slotOptions struct {
	policy Policy
}

func WithPolicy(p Policy) Option {
	return func(o *slotOptions) { o.policy = p }
}

func New[T any](name string, opts ...Option) *Slot[T] {
	o := slotOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Slot[T]{name: name, policy: o.policy}
}

func (s *Slot[T]) Name() string { return s.name }

// Get returns the current state. It never blocks on a load in progress.
func (s *Slot[T]) Get() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the slot contents. The generation counter is kept.
func (s *Slot[T]) Set(state Snapshot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Generation = s.state.Generation
	state.Revision = s.state.Revision + 1
	s.state = state
}

func (s *Slot[T]) SetReady(v T) {
	s.Set(Snapshot[T]{Status: StatusReady, Value: v})
}

// begin moves the slot to StatusFetching and returns the new generation.
func (s *Slot[T]) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Snapshot[T]{
		Status:     StatusFetching,
		Generation: s.state.Generation + 1,
		Revision:   s.state.Revision + 1,
	}
	return s.state.Generation
}

// settle records the outcome of load gen and reports whether it was kept.
func (s *Slot[T]) settle(gen uint64, v T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == LatestStartedWins && gen != s.state.Generation {
		return false
	}
	next := Snapshot[T]{Status: StatusReady, Value: v}
	if err != nil {
		next = Snapshot[T]{Status: StatusFailed, Err: err}
	}
	next.Generation = s.state.Generation
	next.Revision = s.state.Revision + 1
	s.state = next
	return true
}
