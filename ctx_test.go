package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextPrincipal(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.FromContext(ctx)
	assert.False(t, ok)

	ctx = auth.WithPrincipal(ctx, auth.Principal{ID: "alice", Username: "alice"})
	p, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
}

func TestContextZeroPrincipalIsAbsent(t *testing.T) {
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{})
	_, ok := auth.FromContext(ctx)
	assert.False(t, ok)
}

func TestContextFallsBackToSession(t *testing.T) {
	a := newTestAuther(t)
	sess := a.Session(auth.NewMemorySessionStore())
	ctx := auth.WithSession(context.Background(), sess)

	found, ok := auth.SessionFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, sess, found)

	_, ok = auth.FromContext(ctx)
	assert.False(t, ok, "anonymous session")

	_, err := sess.Login(ctx, "alice", testPassword, false)
	require.NoError(t, err)

	p, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
}

func TestSessionFromEmptyContext(t *testing.T) {
	_, ok := auth.SessionFromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithSession(context.Background(), nil)
	_, ok = auth.SessionFromContext(ctx)
	assert.False(t, ok)
}
