package pg

import (
	"context"
	"errors"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	migrations "github.com/dropDatabas3/keyrotor/migrations/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErr(t *testing.T) {
	assert.Nil(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), core.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "users_login_lower_uq"}), core.ErrConflict)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23514"}), core.ErrInvalid)

	other := errors.New("boom")
	assert.Equal(t, other, mapErr(other))
}

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_more_up.sql":   {Data: []byte("--")},
		"0001_init_up.sql":   {Data: []byte("--")},
		"0001_init_down.sql": {Data: []byte("--")},
		"README.md":          {Data: []byte("x")},
	}
	up, err := migrationFiles(fsys, "_up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init_up.sql", "0002_more_up.sql"}, up)

	down, err := migrationFiles(fsys, "_down.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init_down.sql"}, down)

	embedded, err := migrationFiles(migrations.FS, "_up.sql")
	require.NoError(t, err)
	assert.Contains(t, embedded, "0001_init_up.sql")
}

// Integración: requiere KEYROTOR_TEST_PG_DSN apuntando a una base desechable.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("KEYROTOR_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("KEYROTOR_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, dsn, PoolConfig{MaxOpenConns: 2})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.RunMigrationsDown(ctx, migrations.FS))
	require.NoError(t, s.RunMigrations(ctx, migrations.FS))

	users := s.Users()
	u := &core.User{LastName: "Doe", FirstName: "Jane", Login: "jane", PasswordHash: "x",
		Role: core.RoleTeacher, Gender: core.GenderFemale}
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, &core.User{LastName: "a", FirstName: "b", Login: "JANE",
		PasswordHash: "x", Role: core.RoleStudent, Gender: core.GenderMale}), core.ErrConflict)

	got, err := users.GetByLogin(ctx, "Jane")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	rts := s.RefreshTokens()
	_, err = rts.Create(ctx, u.ID, "hash-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = rts.GetActive(ctx, "hash-1")
	require.NoError(t, err)
	n, err := rts.RevokeAllForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = rts.GetActive(ctx, "hash-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, users.Delete(ctx, u.ID))
	assert.ErrorIs(t, users.Delete(ctx, uuid.New()), core.ErrNotFound)
}
