// Package stream emits resolution thoughts to a caller's sink in real time.
//
// Two emitters share the same surface: Simple is a stateless pass-through
// for strategies that do not track per-thought confidence; Phased runs the
// discovery → verification state machine and supports boost-on-verify
// republication.
package stream

import (
	"sync"

	"github.com/communisaas/resolver-cli/internal/model"
)

// Simple is a stateless emitter: every call immediately produces one event
// on the sink. Safe for concurrent use.
type Simple struct {
	mu     sync.Mutex
	sink   model.ThoughtSink
	nextID int
}

// NewSimple creates a pass-through emitter. A nil sink drops all events.
func NewSimple(sink model.ThoughtSink) *Simple {
	return &Simple{sink: sink}
}

// Emit publishes one thought and returns its id.
func (s *Simple) Emit(phase model.ThoughtPhase, content string, citations ...string) int {
	s.mu.Lock()
	s.nextID++
	t := model.Thought{
		ID:        s.nextID,
		Phase:     phase,
		Content:   content,
		Citations: citations,
	}
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink(t)
	}
	return t.ID
}

// Pin publishes a thought flagged as a key moment.
func (s *Simple) Pin(phase model.ThoughtPhase, content string) int {
	s.mu.Lock()
	s.nextID++
	t := model.Thought{
		ID:      s.nextID,
		Phase:   phase,
		Content: content,
		Pinned:  true,
	}
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink(t)
	}
	return t.ID
}
