package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/security/password"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/dropDatabas3/keyrotor/internal/store/memory"
	"github.com/stretchr/testify/require"
)

var fastParams = password.Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc     *auth.Service
	keys    *jwtx.Manager
	users   *memory.UserStore
	refresh *memory.RefreshTokenStore
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clk := &clock{now: time.Now().Truncate(time.Second)}

	fs, err := jwtx.NewFileKeyStore(t.TempDir())
	require.NoError(t, err)
	keys, err := jwtx.NewManager(ctx, fs, jwtx.WithManagerClock(clk.Now))
	require.NoError(t, err)
	_, err = keys.Rotate(ctx, "v1")
	require.NoError(t, err)

	users := memory.NewUserStore().WithClock(clk.Now)
	refresh := memory.NewRefreshTokenStore(time.Minute).WithClock(clk.Now)
	issuer := jwtx.NewIssuer(keys, jwtx.WithClock(clk.Now))
	svc := auth.NewService(users, refresh, issuer, auth.Config{
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     24 * time.Hour,
		Issuer:         "keyrotor-test",
		PasswordParams: fastParams,
	}, auth.WithClock(clk.Now))

	return &fixture{svc: svc, keys: keys, users: users, refresh: refresh, clock: clk}
}

func (f *fixture) createUser(t *testing.T, login, pass string, role core.Role) *core.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), auth.CreateUserInput{
		LastName:  "Ivanova",
		FirstName: "Anna",
		Login:     login,
		Password:  pass,
		Role:      role,
		Gender:    core.GenderFemale,
	})
	require.NoError(t, err)
	return u
}
