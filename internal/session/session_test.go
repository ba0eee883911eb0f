package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCreatesAnonymousSession(t *testing.T) {
	m := NewManager()

	token, err := m.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	sess, ok := m.Get(token)
	require.True(t, ok)
	assert.Empty(t, sess.ActiveUserKey)
	assert.Empty(t, sess.LoginAttemptUserKey)
}

func TestTokensAreUnique(t *testing.T) {
	m := NewManager()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := m.Issue()
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestPutUpdatesKnownToken(t *testing.T) {
	m := NewManager()
	token, err := m.Issue()
	require.NoError(t, err)

	m.Put(token, Context{ActiveUserKey: "user1"})
	sess, ok := m.Get(token)
	require.True(t, ok)
	assert.Equal(t, "user1", sess.ActiveUserKey)
}

func TestPutIgnoresUnknownToken(t *testing.T) {
	m := NewManager()

	m.Put("stale-cookie", Context{ActiveUserKey: "user1"})
	_, ok := m.Get("stale-cookie")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	m := NewManager()
	token, err := m.Issue()
	require.NoError(t, err)

	m.Delete(token)
	_, ok := m.Get(token)
	assert.False(t, ok)
}
