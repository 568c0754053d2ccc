package orchestration

import (
	"errors"
	"time"

	"github.com/bizmatters/graphide-orchestrator/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultSessionEntries = 10000
	defaultSessionTTL     = 24 * time.Hour
)

// ErrSessionNotFound is returned for unknown or expired scan sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps scan session records. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	Put(record models.SessionRecord)
	Get(id string) (models.SessionRecord, error)
	Expire(id string) bool
	Len() int
}

// MemorySessionStore is a bounded, TTL-evicting in-process SessionStore
type MemorySessionStore struct {
	cache *expirable.LRU[string, models.SessionRecord]
}

// NewMemorySessionStore creates a store holding at most maxEntries records
// for at most ttl each. Non-positive values fall back to the defaults.
func NewMemorySessionStore(maxEntries int, ttl time.Duration) *MemorySessionStore {
	if maxEntries <= 0 {
		maxEntries = defaultSessionEntries
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		cache: expirable.NewLRU[string, models.SessionRecord](maxEntries, nil, ttl),
	}
}

func (s *MemorySessionStore) Put(record models.SessionRecord) {
	s.cache.Add(record.ID, record)
}

func (s *MemorySessionStore) Get(id string) (models.SessionRecord, error) {
	record, ok := s.cache.Get(id)
	if !ok {
		return models.SessionRecord{}, ErrSessionNotFound
	}
	return record, nil
}

// Expire drops id and reports whether it was present
func (s *MemorySessionStore) Expire(id string) bool {
	return s.cache.Remove(id)
}

func (s *MemorySessionStore) Len() int {
	return s.cache.Len()
}
