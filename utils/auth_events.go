package utils

import "sync"

// AuthEvent describes a change in a user's authentication state.
type AuthEvent struct {
	UserID   uint
	SignedIn bool
}

// AuthWatcher fans authentication state changes out to subscribers.
// Subscribe returns a disposer; after it runs, the callback is never
// invoked again, even for notifications already in flight.
type AuthWatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*authSub
}

type authSub struct {
	fn   func(AuthEvent)
	mu   sync.Mutex
	dead bool
}

// NewAuthWatcher creates an empty watcher.
func NewAuthWatcher() *AuthWatcher {
	return &AuthWatcher{subs: map[int]*authSub{}}
}

// Subscribe registers a callback and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (w *AuthWatcher) Subscribe(fn func(AuthEvent)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	sub := &authSub{fn: fn}
	w.subs[id] = sub
	w.mu.Unlock()

	return func() {
		sub.mu.Lock()
		sub.dead = true
		sub.mu.Unlock()

		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Notify delivers the event to all live subscribers.
func (w *AuthWatcher) Notify(ev AuthEvent) {
	w.mu.Lock()
	subs := make([]*authSub, 0, len(w.subs))
	for _, s := range w.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		if !s.dead {
			s.fn(ev)
		}
		s.mu.Unlock()
	}
}
