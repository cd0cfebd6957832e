// Package cache persists time-series responses keyed by canonical query hash.
// Entries expire after a TTL and eviction is all-or-nothing: when a backend
// reports capacity exhaustion the whole store is cleared and the write retried
// once. The deliberate simplicity trades recency tracking for a policy that
// cannot strand stale partial state.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long a cached response stays servable.
const DefaultTTL = 7 * 24 * time.Hour

// ErrCapacity is returned by backends that cannot accept another entry.
var ErrCapacity = errors.New("cache capacity exhausted")

// Backend is raw keyed storage beneath the expiry policy.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Clear() error
}

// envelope wraps a payload with its storage timestamp.
type envelope struct {
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// Store applies TTL and eviction policy over a Backend.
type Store struct {
	backend Backend
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
}

// New creates a Store. A zero ttl means DefaultTTL; a nil clock means real time.
func New(backend Backend, ttl time.Duration, clk clockwork.Clock, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Store{backend: backend, ttl: ttl, clock: clk, logger: logger}
}

// Get returns the cached payload and its storage time. Entries older than the
// TTL are reported absent. Malformed entries are logged and treated as misses,
// never as hard failures.
func (s *Store) Get(key string) ([]byte, time.Time, bool) {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn("malformed cache entry, treating as miss", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	if s.clock.Now().Sub(env.CachedAt) > s.ttl {
		return nil, time.Time{}, false
	}
	return env.Payload, env.CachedAt, true
}

// Put stores a payload under the key, stamped with the current time. On
// capacity exhaustion the whole store is cleared and the write retried once;
// a second failure propagates.
func (s *Store) Put(key string, payload []byte) error {
	raw, err := json.Marshal(envelope{Payload: payload, CachedAt: s.clock.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	err = s.backend.Put(key, raw)
	if !errors.Is(err, ErrCapacity) {
		return err
	}

	s.logger.Warn("cache full, clearing store and retrying", "key", key)
	if err := s.backend.Clear(); err != nil {
		return fmt.Errorf("clear cache after capacity failure: %w", err)
	}
	if err := s.backend.Put(key, raw); err != nil {
		return fmt.Errorf("cache write after eviction: %w", err)
	}
	return nil
}

// Clear drops every entry.
func (s *Store) Clear() error {
	return s.backend.Clear()
}
