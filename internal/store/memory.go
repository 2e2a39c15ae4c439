package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-widget/internal/widget"
)

// session is a mounted widget and the last time a client touched it.
type session struct {
	widget   *widget.Widget
	lastSeen time.Time
}

// MemoryStore is a concurrency-safe in-memory registry of mounted widgets.
// Nothing survives a restart.
type MemoryStore struct {
	mu sync.RWMutex

	// key: widget id
	data map[string]*session

	// retention configuration
	maxWidgets int           // max number of mounted widgets (0 = unlimited)
	maxIdle    time.Duration // widgets idle longer than this are evicted (0 = never)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxWidgets is <= 0, it is treated as unlimited.
func NewMemoryStore(maxWidgets int, maxIdle time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*session),
		maxWidgets: maxWidgets,
		maxIdle:    maxIdle,
		now:        time.Now,
	}
}

// Save registers a widget. When the store is full the least recently used
// widget is dropped to make room.
func (s *MemoryStore) Save(w *widget.Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[w.ID]; !ok && s.maxWidgets > 0 && len(s.data) >= s.maxWidgets {
		s.evictOldestLocked()
	}
	s.data[w.ID] = &session{widget: w, lastSeen: s.now()}
}

// Get returns a widget and marks it as used.
func (s *MemoryStore) Get(id string) (*widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[id]
	if !ok {
		return nil, widget.ErrNotFound
	}
	sess.lastSeen = s.now()
	return sess.widget, nil
}

// Delete removes a widget.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return widget.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// EvictIdle removes every widget last used before now-maxIdle and returns
// how many were removed.
func (s *MemoryStore) EvictIdle(now time.Time) int {
	if s.maxIdle <= 0 {
		return 0
	}
	cutoff := now.Add(-s.maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.data {
		if sess.lastSeen.Before(cutoff) {
			delete(s.data, id)
			n++
		}
	}
	return n
}

// Len reports the number of mounted widgets.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range s.data {
		if oldestID == "" || sess.lastSeen.Before(oldest) {
			oldestID = id
			oldest = sess.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.data, oldestID)
	}
}
