// Package session holds the client's ephemeral session state in memory and
// broadcasts every change to subscribers.
package session

import (
	"sync"

	"github.com/dmitrijs2005/ministry/internal/client/client"
)

// EventKind names what happened to the session.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventRefresh EventKind = "refresh"
	EventLogout  EventKind = "logout"
	EventEvicted EventKind = "evicted"
	EventUpdated EventKind = "updated"
)

// Session is the cached user snapshot plus the current access token.
// Onboarded is false for a freshly registered account until the dashboard
// has been shown once. Preferences is empty at sign-in and is dropped with
// the rest of the session.
type Session struct {
	User        client.User
	AccessToken string
	Onboarded   bool
	Preferences map[string]string
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Preferences != nil {
		c.Preferences = make(map[string]string, len(s.Preferences))
		for k, v := range s.Preferences {
			c.Preferences[k] = v
		}
	}
	return &c
}

// Event is delivered to subscribers after each mutation. Session is nil for
// logout and evicted.
type Event struct {
	Kind       EventKind
	Session    *Session
	Generation uint64
}

// Store is safe for concurrent use. Every mutation bumps the generation, so
// callers can detect that something changed while they were waiting.
type Store struct {
	mu      sync.Mutex
	current *Session
	gen     uint64
	nextID  int
	subs    map[int]func(Event)
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(Event))}
}

// Snapshot returns a copy of the current session (nil when signed out) and
// the generation it belongs to.
func (s *Store) Snapshot() (*Session, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone(), s.gen
}

// Generation returns the current generation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Set replaces the session unconditionally.
func (s *Store) Set(kind EventKind, sess *Session) uint64 {
	s.mu.Lock()
	gen := s.apply(sess)
	ev := Event{Kind: kind, Session: sess.clone(), Generation: gen}
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, ev)
	return gen
}

// Clear drops the session unconditionally.
func (s *Store) Clear(kind EventKind) uint64 {
	return s.Set(kind, nil)
}

// CompareAndSet replaces the session only if the generation is still gen.
func (s *Store) CompareAndSet(gen uint64, kind EventKind, sess *Session) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	newGen := s.apply(sess)
	ev := Event{Kind: kind, Session: sess.clone(), Generation: newGen}
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, ev)
	return true
}

// CompareAndClear drops the session only if the generation is still gen.
func (s *Store) CompareAndClear(gen uint64, kind EventKind) bool {
	return s.CompareAndSet(gen, kind, nil)
}

// Subscribe registers fn for every future event. Callbacks run on the
// mutating goroutine after the store lock is released. The returned func
// unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// apply must be called with mu held.
func (s *Store) apply(sess *Session) uint64 {
	s.current = sess.clone()
	s.gen++
	return s.gen
}

// subscribers must be called with mu held.
func (s *Store) subscribers() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
