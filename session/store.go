package session

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/errs"
)

// Store manages session lifecycle. Implementations must support concurrent
// access across distinct session ids; mutual exclusion within one session is
// provided by Acquire.
type Store interface {
	// Create fails with a duplicate_session error if the id is already
	// present.
	Create(ctx context.Context, id, senderID string) (*Session, error)
	// Get fails with a session_not_found error if the id is absent or
	// expired.
	Get(ctx context.Context, id string) (*Session, error)
	// Resume is fetch-or-create for a sender re-entering a stale session.
	Resume(ctx context.Context, id, senderID string) (*Session, error)
	// Save persists the session. In-memory stores may treat this as a
	// touch; persistence-backed stores write the serialized session.
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error

	// Acquire takes the per-session lock, failing fast with a session_busy
	// error when another call is in flight for the same id. The returned
	// function releases the lock.
	Acquire(ctx context.Context, id string) (func(), error)
}

// memoryEntry outlives the session it holds: the mutex identity must stay
// stable across create/expire cycles so a held lock keeps excluding callers.
// The sess and lastSeen fields are guarded by the store mutex, not by mu;
// mu is only the per-session turn lock handed out through Acquire.
type memoryEntry struct {
	mu       sync.Mutex
	sess     *Session
	lastSeen time.Time
}

// MemoryStore is the in-process store used by the CLI and tests. A non-zero
// TTL evicts sessions that have not been touched within the window.
//
// Every method hands out deep copies: mutations on a returned session stay
// invisible until Save writes them back, so a reader never observes a turn
// in flight.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithTTL sets the idle eviction window. Zero means sessions never expire.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// entry returns the slot for id, creating it if absent. Callers must hold
// s.mu.
func (s *MemoryStore) entry(id string) *memoryEntry {
	entry, ok := s.entries[id]
	if !ok {
		entry = &memoryEntry{lastSeen: s.now()}
		s.entries[id] = entry
	}
	return entry
}

func (s *MemoryStore) Create(_ context.Context, id, senderID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entry(id)
	if s.live(entry) {
		return nil, goerr.New("session already exists",
			goerr.Tag(errs.TagDuplicateSession),
			goerr.TV(errs.SessionIDKey, id),
		)
	}
	entry.sess = New(id, senderID)
	entry.lastSeen = s.now()
	return entry.sess.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || !s.live(entry) {
		return nil, goerr.New("session not found",
			goerr.Tag(errs.TagSessionNotFound),
			goerr.TV(errs.SessionIDKey, id),
		)
	}
	entry.lastSeen = s.now()
	return entry.sess.Clone(), nil
}

func (s *MemoryStore) Resume(_ context.Context, id, senderID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entry(id)
	if !s.live(entry) {
		entry.sess = New(id, senderID)
	}
	entry.lastSeen = s.now()
	return entry.sess.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sess.ID]
	if !ok || !s.live(entry) {
		return goerr.New("session not found",
			goerr.Tag(errs.TagSessionNotFound),
			goerr.TV(errs.SessionIDKey, sess.ID),
		)
	}
	entry.sess = sess.Clone()
	entry.lastSeen = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	if entry, ok := s.entries[id]; ok {
		entry.sess = nil
	}
	s.mu.Unlock()
	return nil
}

// Acquire locks the session id, creating the lock slot if the session does
// not exist yet so create-then-save runs under the same lock.
func (s *MemoryStore) Acquire(_ context.Context, id string) (func(), error) {
	s.mu.Lock()
	entry := s.entry(id)
	s.mu.Unlock()
	if !entry.mu.TryLock() {
		return nil, goerr.New("session is busy",
			goerr.Tag(errs.TagSessionBusy),
			goerr.TV(errs.SessionIDKey, id),
		)
	}
	return entry.mu.Unlock, nil
}

// live reports whether the entry holds a non-expired session. Callers must
// hold s.mu.
func (s *MemoryStore) live(entry *memoryEntry) bool {
	if entry.sess == nil {
		return false
	}
	if s.ttl <= 0 {
		return true
	}
	return s.now().Sub(entry.lastSeen) <= s.ttl
}
