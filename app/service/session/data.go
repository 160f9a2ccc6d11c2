package session

import (
	"errors"
	"sync"
)

// ErrUnknownSession is returned by operations referencing an id that was
// never created. It signals a local bug or client tampering and is not
// surfaced to end users.
var ErrUnknownSession = errors.New("unknown session")

// Session holds the rolling conversation state of one user or web client.
//
// Two locks with distinct scopes: turnMu serializes whole turns (held across
// the engine call, so two turns of the same session never interleave), mu
// guards the fields for short reads and writes.
type Session struct {
	ID string

	turnMu sync.Mutex

	mu        sync.RWMutex
	history   []string
	turnCount int
	finalized bool
	exportID  string
}

// Lock acquires the per-session turn lock. Turns of distinct sessions
// proceed independently.
func (s *Session) Lock() {
	s.turnMu.Lock()
}

func (s *Session) Unlock() {
	s.turnMu.Unlock()
}

// History returns a copy of the utterance log, oldest first.
func (s *Session) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.history))
	copy(result, s.history)

	return result
}

func (s *Session) TurnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.turnCount
}

func (s *Session) Finalized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.finalized
}

func (s *Session) ExportID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.exportID
}
