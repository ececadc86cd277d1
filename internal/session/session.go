// Package session carries the caller identity of one request as an explicit
// object. Components that need the identity receive the Session and may
// subscribe to sign-in/sign-out changes for as long as they are active.
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/studyshelf/internal/common"
)

// Identity is an authenticated portal user.
type Identity struct {
	UserID string
}

// EventKind tells listeners what changed.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Identity Identity
}

// Session is safe for concurrent use. The zero value is an anonymous session.
type Session struct {
	mu        sync.Mutex
	identity  *Identity
	nextID    int
	listeners map[int]func(Event)
}

// New returns an anonymous session.
func New() *Session {
	return &Session{}
}

// NewAuthenticated returns a session already signed in as id.
func NewAuthenticated(id Identity) *Session {
	return &Session{identity: &id}
}

// Identity returns the current identity and whether there is one.
func (s *Session) Identity() (Identity, bool) {
	if s == nil {
		return Identity{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Require returns the identity or an UnauthenticatedError naming op.
func (s *Session) Require(op string) (Identity, error) {
	id, ok := s.Identity()
	if !ok {
		return Identity{}, &common.UnauthenticatedError{Op: op}
	}
	return id, nil
}

// SignIn sets the identity and notifies listeners.
func (s *Session) SignIn(id Identity) {
	s.mu.Lock()
	s.identity = &id
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners, Event{Kind: SignedIn, Identity: id})
}

// SignOut clears the identity and notifies listeners. Signing out an
// anonymous session is a no-op.
func (s *Session) SignOut() {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return
	}
	prev := *s.identity
	s.identity = nil
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners, Event{Kind: SignedOut, Identity: prev})
}

// Subscribe registers fn for identity changes. The returned function
// unsubscribes; calling it more than once is harmless. Listeners run on the
// goroutine that changed the identity, outside the session lock.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(Event))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Listeners reports how many subscriptions are active.
func (s *Session) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Session) snapshotListeners() []func(Event) {
	out := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return New()
}
