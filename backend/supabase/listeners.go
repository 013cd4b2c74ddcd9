package supabase

import (
	"slices"
	"sync"

	"github.com/jrsteele09/sprinkler-crm/backend"
)

type listener struct {
	id int
	fn backend.StateChangeFunc
}

type listeners struct {
	mu       sync.Mutex
	dispatch sync.Mutex // held while a notification is delivered
	next     int
	fns      []listener
}

func newListeners() *listeners {
	return &listeners{}
}

type subscription struct {
	id int
	l  *listeners
}

func (s *subscription) Unsubscribe() {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	s.l.fns = slices.DeleteFunc(s.l.fns, func(e listener) bool { return e.id == s.id })
}

func (l *listeners) add(fn backend.StateChangeFunc) backend.Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.fns = append(l.fns, listener{id: l.next, fn: fn})
	return &subscription{id: l.next, l: l}
}

func (l *listeners) emit(event backend.AuthEvent, session *backend.Session) {
	l.dispatch.Lock()
	defer l.dispatch.Unlock()

	l.mu.Lock()
	fns := slices.Clone(l.fns)
	l.mu.Unlock()

	for _, e := range fns {
		e.fn(event, session.Clone())
	}
}
