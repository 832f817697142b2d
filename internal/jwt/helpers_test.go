package jwt_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
)

// fakeClock es un reloj manual seguro para goroutines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memBackend es un Backend+Writer en memoria. CreatedAt sale del reloj inyectado.
type memBackend struct {
	mu    sync.Mutex
	clock func() time.Time
	recs  map[string]jwtx.KeyRecord
	seq   []string
}

func newMemBackend(clock func() time.Time) *memBackend {
	return &memBackend{clock: clock, recs: map[string]jwtx.KeyRecord{}}
}

func (b *memBackend) Name() jwtx.Source { return jwtx.SourceFilesystem }

func (b *memBackend) Load(context.Context) ([]jwtx.KeyRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]jwtx.KeyRecord, 0, len(b.seq))
	for _, kid := range b.seq {
		out = append(out, b.recs[kid])
	}
	return out, nil
}

func (b *memBackend) Save(_ context.Context, kid, priv, pub string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.recs[kid]; ok {
		return fmt.Errorf("%w: %s", jwtx.ErrKIDExists, kid)
	}
	b.seq = append(b.seq, kid)
	b.recs[kid] = jwtx.KeyRecord{KID: kid, PrivatePEM: priv, PublicPEM: pub, CreatedAt: b.clock(), Source: jwtx.SourceFilesystem}
	return nil
}

func (b *memBackend) Retire(_ context.Context, kid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.recs[kid]
	r.PrivatePEM = ""
	b.recs[kid] = r
	return nil
}

var (
	pairsOnce sync.Once
	pairs     [][2]string
	pairsErr  error
)

// cachedGenerator entrega pares RSA pre-generados en orden circular para que
// los tests no paguen la generación en cada rotación.
func cachedGenerator(t testing.TB) jwtx.KeyGenerator {
	t.Helper()
	pairsOnce.Do(func() {
		for i := 0; i < 4; i++ {
			priv, pub, err := jwtx.GenerateKeyPair()
			if err != nil {
				pairsErr = err
				return
			}
			pairs = append(pairs, [2]string{priv, pub})
		}
	})
	require.NoError(t, pairsErr)

	var mu sync.Mutex
	next := 0
	return func() (string, string, error) {
		mu.Lock()
		defer mu.Unlock()
		p := pairs[next%len(pairs)]
		next++
		return p[0], p[1], nil
	}
}

func failingGenerator() (string, string, error) {
	return "", "", fmt.Errorf("entropy source exhausted")
}

// newTestManager arma Manager + Issuer sobre memBackend y reloj falso.
func newTestManager(t testing.TB, clock *fakeClock) (*jwtx.Manager, *jwtx.Issuer, *memBackend) {
	t.Helper()
	backend := newMemBackend(clock.Now)
	m, err := jwtx.NewManager(context.Background(), backend,
		jwtx.WithGenerator(cachedGenerator(t)),
		jwtx.WithManagerClock(clock.Now),
	)
	require.NoError(t, err)
	return m, jwtx.NewIssuer(m, jwtx.WithClock(clock.Now)), backend
}

func kidsOf(infos []jwtx.KeyInfo) []string {
	out := make([]string, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.KID)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
