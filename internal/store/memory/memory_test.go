package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(login string) *core.User {
	return &core.User{
		LastName:  "Doe",
		FirstName: "Jane",
		Login:     login,
		Role:      core.RoleStudent,
		Gender:    core.GenderFemale,
	}
}

func TestUserStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	u := newUser("jane")
	require.NoError(t, s.Create(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetByLogin(ctx, "JANE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	err = s.Create(ctx, newUser("jane"))
	assert.ErrorIs(t, err, core.ErrConflict)

	class := "10A"
	got.ClassName = &class
	got.Login = "jane.doe"
	require.NoError(t, s.Update(ctx, got))

	_, err = s.GetByLogin(ctx, "jane")
	assert.ErrorIs(t, err, core.ErrNotFound)
	again, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ClassName)
	assert.Equal(t, "10A", *again.ClassName)

	// la copia devuelta no comparte memoria con el store
	*again.ClassName = "11B"
	fresh, _ := s.GetByID(ctx, u.ID)
	assert.Equal(t, "10A", *fresh.ClassName)

	require.NoError(t, s.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Delete(ctx, u.ID), core.ErrNotFound)
	n, _ := s.Count(ctx)
	assert.Zero(t, n)
}

func TestUserStore_UpdateLoginConflict(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	a, b := newUser("a"), newUser("b")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	b.Login = "A"
	assert.ErrorIs(t, s.Update(ctx, b), core.ErrConflict)
	assert.ErrorIs(t, s.Update(ctx, &core.User{ID: uuid.New(), Login: "x"}), core.ErrNotFound)
}

func TestUserStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, login := range []string{"u1", "u2", "u3"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		require.NoError(t, s.Create(ctx, newUser(login)))
	}

	page, err := s.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "u3", page[0].Login)
	assert.Equal(t, "u2", page[1].Login)

	page, err = s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u1", page[0].Login)

	page, err = s.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRefreshTokenStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewRefreshTokenStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	uid := uuid.New()

	_, err := s.Create(ctx, uid, "h1", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Create(ctx, uid, "h2", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Create(ctx, uuid.New(), "h3", now.Add(time.Hour))
	require.NoError(t, err)

	_, err = s.Create(ctx, uid, "h1", now.Add(time.Hour))
	assert.ErrorIs(t, err, core.ErrConflict)

	rt, err := s.GetActive(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, uid, rt.UserID)

	ok, err := s.Revoke(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.Revoke(ctx, "h1")
	assert.False(t, ok)
	ok, _ = s.Revoke(ctx, "missing")
	assert.False(t, ok)

	_, err = s.GetActive(ctx, "h1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	n, err := s.RevokeAllForUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.GetActive(ctx, "h3")
	assert.NoError(t, err)
}

func TestRefreshTokenStore_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewRefreshTokenStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Create(ctx, uuid.New(), "h", now.Add(time.Hour))
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = s.GetActive(ctx, "h")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Create(ctx, uuid.New(), "past", now.Add(-time.Hour))
	assert.ErrorIs(t, err, core.ErrInvalid)
}
