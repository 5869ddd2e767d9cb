package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"meal-shell/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStateRepository(t *testing.T) *StateRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStateRepository(db.SQL)
}

func TestStateRepository(t *testing.T) {
	ctx := context.Background()
	repo := newStateRepository(t)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Save(ctx, "first"))
	require.NoError(t, repo.Save(ctx, "second"))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, repo.Clear(ctx))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	var rows int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM client_state`).Scan(&rows))
	assert.Zero(t, rows)
}

func TestSetAuthToken(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	s := New(newTestGuard(testAudience), store, nil)

	require.NoError(t, s.SetAuthToken(ctx, "  abc.def.ghi \n"))
	assert.Equal(t, "abc.def.ghi", s.AuthToken())
	stored, _ := store.Load(ctx)
	assert.Equal(t, "abc.def.ghi", stored)

	require.NoError(t, s.SetAuthToken(ctx, "   "))
	assert.Empty(t, s.AuthToken())
	assert.False(t, s.Authenticated())
	stored, _ = store.Load(ctx)
	assert.Empty(t, stored)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted", func(t *testing.T) {
		repo := newStateRepository(t)
		s := New(newTestGuard(testAudience), repo, nil)
		token := signed(t, validClaims())

		res, err := s.Login(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, token, s.Token())
		assert.Equal(t, "cook@example.com", s.Claims()["email"])

		stored, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, token, stored)
	})

	t.Run("Rejected", func(t *testing.T) {
		store := &MemoryStore{}
		s := New(newTestGuard(testAudience), store, nil)
		claims := validClaims()
		claims["aud"] = "other"

		res, err := s.Login(ctx, signed(t, claims))
		require.Error(t, err)
		assert.False(t, res.Valid)

		var rejected *RejectedError
		require.True(t, errors.As(err, &rejected))
		assert.Equal(t, ReasonAudienceMismatch, rejected.Reason)
		assert.False(t, s.Authenticated())
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		s := New(newTestGuard(testAudience), &MemoryStore{}, nil)
		ok, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("StillValid", func(t *testing.T) {
		repo := newStateRepository(t)
		token := signed(t, validClaims())
		require.NoError(t, repo.Save(ctx, token))

		s := New(newTestGuard(testAudience), repo, nil)
		ok, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, token, s.Token())
	})

	t.Run("ExpiredIsDiscarded", func(t *testing.T) {
		repo := newStateRepository(t)
		claims := validClaims()
		claims["exp"] = fixedNow.Add(10 * time.Second).Unix()
		require.NoError(t, repo.Save(ctx, signed(t, claims)))

		s := New(newTestGuard(testAudience), repo, nil)
		ok, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, s.Token())

		stored, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	s := New(newTestGuard(testAudience), store, nil)

	_, err := s.Login(ctx, signed(t, validClaims()))
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Claims())
	stored, _ := store.Load(ctx)
	assert.Empty(t, stored)
}
