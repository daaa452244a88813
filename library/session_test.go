package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, kv KV) *Session {
	t.Helper()
	s, err := OpenSession(kv, WithIDFunc(seqIDs("user")), WithClock(fixedClock(testNow)))
	require.NoError(t, err)
	return s
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s := newSession(t, NewMemoryKV())

	ok, err := s.Register("a@x.com", "abcdef", "A", "")
	require.NoError(t, err)
	assert.True(t, ok)

	id, loggedIn := s.Current()
	require.True(t, loggedIn)
	assert.Equal(t, Identity{ID: "user-1", Email: "a@x.com", Name: "A", Role: RoleUser}, id)

	ok, err = s.Register("A@X.com", "different", "Other", RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
	id, _ = s.Current()
	assert.Equal(t, "A", id.Name)
}

func TestLoginUnknownEmailLeavesIdentityAbsent(t *testing.T) {
	s := newSession(t, NewMemoryKV())

	ok, err := s.Login("nobody@x.com", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
	_, loggedIn := s.Current()
	assert.False(t, loggedIn)
}

func TestLogin(t *testing.T) {
	kv := NewMemoryKV()
	s := newSession(t, kv)
	ok, err := s.Register("lib@x.com", "s3cret!", "Librarian", RoleAdmin)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Logout())

	ok, err = s.Login("lib@x.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	_, loggedIn := s.Current()
	assert.False(t, loggedIn)

	ok, err = s.Login("LIB@x.com", "s3cret!")
	require.NoError(t, err)
	assert.True(t, ok)
	id, loggedIn := s.Current()
	require.True(t, loggedIn)
	assert.True(t, id.IsAdmin())
}

func TestPasswordsAreNotStoredInPlaintext(t *testing.T) {
	kv := NewMemoryKV()
	s := newSession(t, kv)
	_, err := s.Register("a@x.com", "plaintext-pw", "A", RoleUser)
	require.NoError(t, err)

	raw, found, err := kv.Get(KeyCredentials)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, raw, "plaintext-pw")
	assert.Contains(t, raw, `"passwordHash":"$2a$`)
}

func TestSessionSurvivesReopen(t *testing.T) {
	kv := NewMemoryKV()
	s := newSession(t, kv)
	_, err := s.Register("a@x.com", "abcdef", "A", RoleUser)
	require.NoError(t, err)

	reopened := newSession(t, kv)
	id, loggedIn := reopened.Current()
	require.True(t, loggedIn)
	assert.Equal(t, "a@x.com", id.Email)

	require.NoError(t, reopened.Logout())
	_, found, _ := kv.Get(KeySession)
	assert.False(t, found)

	again := newSession(t, kv)
	_, loggedIn = again.Current()
	assert.False(t, loggedIn)
}

func TestOpenSessionCorruptRecord(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeySession, "{not json"))

	_, err := OpenSession(kv)
	require.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestChangeEmail(t *testing.T) {
	kv := NewMemoryKV()
	s := newSession(t, kv)
	ok, err := s.Register("old@x.com", "abcdef", "Moved", RoleUser)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Logout())
	ok, err = s.Register("taken@x.com", "abcdef", "Other", RoleUser)
	require.NoError(t, err)
	require.True(t, ok)

	err = s.ChangeEmail("old@x.com", "TAKEN@x.com")
	require.ErrorIs(t, err, ErrEmailInUse)
	require.NoError(t, s.ChangeEmail("nobody@x.com", "fresh@x.com"))
	err = s.ChangeEmail("nobody@x.com", "taken@x.com")
	require.ErrorIs(t, err, ErrEmailInUse)

	require.NoError(t, s.ChangeEmail("OLD@x.com", "new@x.com"))
	ok, err = s.Login("old@x.com", "abcdef")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Login("new@x.com", "abcdef")
	require.NoError(t, err)
	require.True(t, ok)

	// The logged-in identity follows its own account, also across a reopen.
	require.NoError(t, s.ChangeEmail("new@x.com", "newest@x.com"))
	id, _ := s.Current()
	assert.Equal(t, "newest@x.com", id.Email)
	id, loggedIn := newSession(t, kv).Current()
	require.True(t, loggedIn)
	assert.Equal(t, Identity{ID: "user-1", Email: "newest@x.com", Name: "Moved", Role: RoleUser}, id)
}

func TestHasCredentials(t *testing.T) {
	s := newSession(t, NewMemoryKV())
	registered, err := s.HasCredentials()
	require.NoError(t, err)
	assert.False(t, registered)

	_, err = s.Register("a@x.com", "abcdef", "A", "")
	require.NoError(t, err)
	require.NoError(t, s.Logout())
	registered, err = s.HasCredentials()
	require.NoError(t, err)
	assert.True(t, registered)
}
