package session

import (
	"hash/fnv"
	"sync"

	"github.com/samber/do"
)

const shardCount = 16

// Store maps session ids to sessions. It is sharded so that sessions of
// unrelated users never contend on the same lock.
type Store struct {
	shards [shardCount]shard
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(_ *do.Injector) (*Store, error) {
	return NewStore(), nil
}

func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*Session)
	}

	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	return &s.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the session for id, creating it seeded with the opener
// utterance and a turn count of 1. Exactly one session is ever created per
// id, even under concurrent callers.
func (s *Store) GetOrCreate(id, opener string) (*Session, bool) {
	sh := s.shardFor(id)

	sh.mu.RLock()
	sess, ok := sh.sessions[id]
	sh.mu.RUnlock()

	if ok {
		return sess, false
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sess, ok = sh.sessions[id]; ok {
		return sess, false
	}

	sess = &Session{
		ID:        id,
		history:   []string{opener},
		turnCount: 1,
	}
	sh.sessions[id] = sess

	return sess, true
}

// Reset replaces any existing session for id with a fresh one. Used by the
// polling transport's start command, which restarts the dialogue even for a
// known user.
func (s *Store) Reset(id, opener string) *Session {
	sh := s.shardFor(id)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := &Session{
		ID:        id,
		history:   []string{opener},
		turnCount: 1,
	}
	sh.sessions[id] = sess

	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	sh := s.shardFor(id)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}

	return sess, nil
}

func (s *Store) Append(id, utterance string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history, utterance)

	return nil
}

// IncrementTurn bumps the turn counter and returns the new value.
func (s *Store) IncrementTurn(id string) (int, error) {
	sess, err := s.Get(id)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turnCount++

	return sess.turnCount, nil
}

// Finalize marks the session closed and records its export identifier. The
// entry is retained for audit but no further turns are accepted.
func (s *Store) Finalize(id, exportID string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.finalized = true
	sess.exportID = exportID

	return nil
}
