package subscriber

import "sync"

// Store is the in-memory topic→subscription mapping for one subscription
// context. It is the single source of truth for what the client is
// currently listening to.
//
// The exported surface is read-only; all mutation goes through the
// Controller.
type Store struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[string]*Subscription)}
}

// Len returns the number of active subscriptions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Topics returns the set of subscribed topics in unspecified order.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]string, 0, len(s.subs))
	for topic := range s.subs {
		topics = append(topics, topic)
	}
	return topics
}

// All returns a copy of every subscription record in unspecified order.
func (s *Store) All() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, copyRecord(sub))
	}
	return out
}

// Get returns a copy of the record for topic.
func (s *Store) Get(topic string) (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[topic]
	if !ok {
		return Subscription{}, false
	}
	return copyRecord(sub), true
}

// Has reports whether topic has an active record.
func (s *Store) Has(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subs[topic]
	return ok
}

// get returns the live record for in-package mutation.
func (s *Store) get(topic string) (*Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[topic]
	return sub, ok
}

// put inserts or replaces the record for sub.Topic.
func (s *Store) put(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.Topic] = sub
}

// remove deletes the record for topic.
func (s *Store) remove(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, topic)
}
