package devices

import (
	"sync"

	"github.com/google/uuid"
)

const subBufferSize = 8

// Store holds the latest published snapshot and fans it out to subscribers.
// Current returns nil until the first snapshot is published.
//
// Published snapshots are shared with every subscriber and must be treated as
// read-only; use Clone to derive a modified copy.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
	subs    map[string]chan *Snapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		subs: make(map[string]chan *Snapshot),
	}
}

// Current returns the latest snapshot, or nil if none has been published.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Publish replaces the current snapshot and notifies subscribers.
// A subscriber that has fallen behind loses its oldest pending snapshot so
// that the newest one is always delivered.
func (s *Store) Publish(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = snap
	for _, ch := range s.subs {
		deliver(ch, snap)
	}
}

// Subscribe registers a new subscriber. The channel immediately receives the
// current snapshot when one is known. Call Unsubscribe with the returned ID
// when done.
func (s *Store) Subscribe() (string, <-chan *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *Snapshot, subBufferSize)
	if s.current != nil {
		ch <- s.current
	}
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the current number of subscribers.
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// deliver must be called with the store lock held, which makes it the only
// sender on ch.
func deliver(ch chan *Snapshot, snap *Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}
	ch <- snap
}
