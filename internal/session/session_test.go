package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AnonymousByDefault(t *testing.T) {
	s := New()
	_, ok := s.Identity()
	assert.False(t, ok)

	_, err := s.Require("download")
	var ue *common.UnauthenticatedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "download", ue.Op)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	var nilSession *Session
	_, ok = nilSession.Identity()
	assert.False(t, ok)
}

func TestSession_SignInSignOut_Notifies(t *testing.T) {
	s := New()

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.SignIn(Identity{UserID: "u1"})
	id, err := s.Require("upload")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	s.SignOut()
	s.SignOut()

	require.Len(t, events, 2)
	assert.Equal(t, SignedIn, events[0].Kind)
	assert.Equal(t, SignedOut, events[1].Kind)
	assert.Equal(t, "u1", events[1].Identity.UserID)

	unsubscribe()
	s.SignIn(Identity{UserID: "u2"})
	assert.Len(t, events, 2, "no events after unsubscribe")
}

func TestSession_UnsubscribeIdempotent(t *testing.T) {
	s := NewAuthenticated(Identity{UserID: "u"})

	u1 := s.Subscribe(func(Event) {})
	u2 := s.Subscribe(func(Event) {})
	assert.Equal(t, 2, s.Listeners())

	u1()
	u1()
	assert.Equal(t, 1, s.Listeners())
	u2()
	assert.Equal(t, 0, s.Listeners())
}

func TestSession_ListenerMaySubscribe(t *testing.T) {
	s := New()
	s.Subscribe(func(Event) {
		// re-entrant use of the session must not deadlock
		_, _ = s.Identity()
		s.Subscribe(func(Event) {})
	})
	s.SignIn(Identity{UserID: "u"})
	assert.Equal(t, 2, s.Listeners())
}

func TestSession_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := s.Subscribe(func(Event) {})
			s.SignIn(Identity{UserID: "u"})
			_, _ = s.Identity()
			s.SignOut()
			unsub()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.Listeners())
}

func TestContext(t *testing.T) {
	s := NewAuthenticated(Identity{UserID: "ctx-user"})
	ctx := NewContext(context.Background(), s)

	assert.Same(t, s, FromContext(ctx))

	anon := FromContext(context.Background())
	_, ok := anon.Identity()
	assert.False(t, ok)
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "signed_in", SignedIn.String())
	assert.Equal(t, "signed_out", SignedOut.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}
