// Package cache holds extraction results keyed by document fingerprint.
//
// Entries live in memory only and expire lazily: an entry older than the TTL
// is dropped the next time it is read. There is no background sweep and no
// size bound; callers clear a fingerprint explicitly when they force a rescan.
package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"schoolcal/internal/model"
)

// DefaultTTL is how long an extraction stays usable.
const DefaultTTL = 10 * time.Minute

// Entry is the stored form of an extraction. Timestamp never leaves the
// package; readers get a model.Extraction.
type Entry struct {
	Text      string
	Events    []model.EventRecord
	Timestamp time.Time
}

// Store is a mutex-guarded fingerprint -> Entry map.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clockwork.Clock
	entries map[string]Entry
}

type Option func(*Store)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock injects the time source (tests use a fake clock).
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		ttl:     DefaultTTL,
		clock:   clockwork.NewRealClock(),
		entries: make(map[string]Entry),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL reports the configured expiry.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the extraction stored under fp. An expired entry is deleted
// and reported as absent.
func (s *Store) Get(fp string) (model.Extraction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok {
		return model.Extraction{}, false
	}
	if s.clock.Now().Sub(e.Timestamp) > s.ttl {
		delete(s.entries, fp)
		return model.Extraction{}, false
	}
	return model.Extraction{Text: e.Text, Events: slices.Clone(e.Events)}, true
}

// Set stores (or replaces) the extraction for fp, stamped with the current time.
func (s *Store) Set(fp string, x model.Extraction) {
	s.mu.Lock()
	s.entries[fp] = Entry{
		Text:      x.Text,
		Events:    slices.Clone(x.Events),
		Timestamp: s.clock.Now(),
	}
	s.mu.Unlock()
}

// Clear removes fp. Clearing a missing key is a no-op.
func (s *Store) Clear(fp string) {
	s.mu.Lock()
	delete(s.entries, fp)
	s.mu.Unlock()
}

// Len is the number of stored keys, including expired entries that have not
// been read since they expired.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
