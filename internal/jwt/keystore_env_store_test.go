package jwt_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
)

func environ(vars map[string]string) func() []string {
	return func() []string {
		out := make([]string, 0, len(vars))
		for k, v := range vars {
			out = append(out, k+"="+v)
		}
		return out
	}
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestEnvKeyStoreLoadsEncodings(t *testing.T) {
	gen := cachedGenerator(t)
	priv1, pub1, _ := gen()
	priv2, pub2, _ := gen()

	// v1 con sufijo _B64, v2 en PEM crudo, v3 Base64 sin sufijo, v4 sin PUBLIC
	vars := map[string]string{
		"JWT_KEY_V1_PRIVATE_B64": b64(priv1),
		"JWT_KEY_V1_PUBLIC_B64":  b64(pub1),
		"JWT_KEY_V2_PRIVATE":     priv2,
		"JWT_KEY_V2_PUBLIC":      pub2,
		"JWT_KEY_V3_PUBLIC":      b64(pub1),
		"JWT_KEY_V4_PRIVATE_B64": b64(priv1),
		"JWT_KEYS_UNRELATED":     "x",
		"OTHER_V1_PUBLIC":        b64(pub1),
	}
	loadedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := jwtx.NewEnvKeyStore("", jwtx.WithEnviron(environ(vars)), jwtx.WithEnvClock(func() time.Time { return loadedAt }))
	assert.Equal(t, "JWT_KEY", store.Prefix())

	recs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	byKID := map[string]jwtx.KeyRecord{}
	for _, r := range recs {
		byKID[r.KID] = r
		assert.Equal(t, jwtx.SourceEnvironment, r.Source)
		assert.Equal(t, loadedAt, r.CreatedAt)
	}
	assert.Equal(t, []string{"v1", "v2", "v3"}, []string{recs[0].KID, recs[1].KID, recs[2].KID})

	assert.Equal(t, pub1, byKID["v1"].PublicPEM)
	assert.Equal(t, priv1, byKID["v1"].PrivatePEM)
	assert.Equal(t, pub2, byKID["v2"].PublicPEM)
	assert.Equal(t, priv2, byKID["v2"].PrivatePEM)
	assert.Equal(t, pub1, byKID["v3"].PublicPEM)
	assert.False(t, byKID["v3"].CanSign())
}

func TestEnvKeyStoreBadBase64FallsBackToRaw(t *testing.T) {
	vars := map[string]string{"APP_K1_PUBLIC_B64": "not base64 at all!!"}
	store := jwtx.NewEnvKeyStore("APP", jwtx.WithEnviron(environ(vars)))

	recs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "not base64 at all!!", recs[0].PublicPEM)

	// el manager lo carga pero no puede publicarlo: falla fuerte en el parseo
	m, err := jwtx.NewManager(context.Background(), store)
	require.NoError(t, err)
	_, err = m.JWKS()
	require.ErrorIs(t, err, jwtx.ErrInvalidKeyMaterial)
}

func TestEnvKeyStoreRetireSurvivesReload(t *testing.T) {
	ctx := context.Background()
	gen := cachedGenerator(t)
	priv, pub, _ := gen()
	vars := map[string]string{
		"JWT_KEY_V1_PRIVATE_B64": b64(priv),
		"JWT_KEY_V1_PUBLIC_B64":  b64(pub),
	}
	store := jwtx.NewEnvKeyStore("JWT_KEY", jwtx.WithEnviron(environ(vars)))
	m, err := jwtx.NewManager(ctx, store)
	require.NoError(t, err)
	require.Equal(t, "v1", m.ActiveKID())

	require.NoError(t, m.Retire(ctx, "v1"))
	assert.Empty(t, m.ActiveKID())
	_, err = m.ActiveKey()
	require.ErrorIs(t, err, jwtx.ErrNoActiveKey)

	require.NoError(t, m.Load(ctx))
	assert.Empty(t, m.ActiveKID(), "retirement must survive reloads")
	assert.Contains(t, m.PublicKeys(), "v1")
	assert.Equal(t, b64(priv), vars["JWT_KEY_V1_PRIVATE_B64"], "process environment is untouched")
}

func TestExportEnvNaming(t *testing.T) {
	out := jwtx.ExportEnv("JWT_KEY",
		jwtx.KeyRecord{KID: "key-2024", PublicPEM: "PUB", PrivatePEM: "PRIV"},
		jwtx.KeyRecord{KID: "old", PublicPEM: "OLDPUB"},
	)
	assert.Equal(t, map[string]string{
		"JWT_KEY_KEY_2024_PUBLIC_B64":  b64("PUB"),
		"JWT_KEY_KEY_2024_PRIVATE_B64": b64("PRIV"),
		"JWT_KEY_OLD_PUBLIC_B64":       b64("OLDPUB"),
	}, out)
}

func TestEnvExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	src, _, _ := newTestManager(t, clock)
	_, err := src.Rotate(ctx, "v1")
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = src.Rotate(ctx, "v2")
	require.NoError(t, err)
	require.NoError(t, src.Retire(ctx, "v1"))

	exported, err := src.ExportEnv("")
	require.NoError(t, err)
	assert.Len(t, exported, 3, "retired v1 exports only its public half")

	dst, err := jwtx.NewManager(ctx, jwtx.NewEnvKeyStore("JWT_KEY", jwtx.WithEnviron(environ(exported))))
	require.NoError(t, err)

	assert.Equal(t, src.PublicKeys(), dst.PublicKeys())
	assert.Equal(t, "v2", dst.ActiveKID())
	wantCanSign := map[string]bool{"v1": false, "v2": true}
	for _, info := range dst.List() {
		assert.Equal(t, wantCanSign[info.KID], info.CanSign, info.KID)
	}

	single, err := src.ExportEnv("v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"JWT_KEY_V2_PRIVATE_B64", "JWT_KEY_V2_PUBLIC_B64"}, sortedKeys(single))

	_, err = src.ExportEnv("nope")
	require.ErrorIs(t, err, jwtx.ErrUnknownKey)
}

func TestEnvRotateReturnsExportWithoutPersisting(t *testing.T) {
	ctx := context.Background()
	vars := map[string]string{}
	store := jwtx.NewEnvKeyStore("SVC", jwtx.WithEnviron(environ(vars)))
	m, err := jwtx.NewManager(ctx, store, jwtx.WithGenerator(cachedGenerator(t)))
	require.NoError(t, err)

	rot, err := m.Rotate(ctx, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rot.KID, "key_"))
	assert.False(t, rot.Activated)
	require.Len(t, rot.Env, 2)
	for name := range rot.Env {
		assert.True(t, strings.HasPrefix(name, "SVC_"+strings.ToUpper(rot.KID)+"_"), name)
	}
	assert.Empty(t, m.ActiveKID())

	// el operador aplica las variables y recarga
	for k, v := range rot.Env {
		vars[k] = v
	}
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, rot.KID, m.ActiveKID())
}

// El backend de entorno carga los kids en minúsculas con '_': Rotate usa esa
// forma para detectar duplicados y para el kid que informa.
func TestEnvRotateNormalizesKID(t *testing.T) {
	ctx := context.Background()
	gen := cachedGenerator(t)
	priv, pub, _ := gen()
	vars := map[string]string{
		"JWT_KEY_V1_PRIVATE_B64": b64(priv),
		"JWT_KEY_V1_PUBLIC_B64":  b64(pub),
	}
	store := jwtx.NewEnvKeyStore("", jwtx.WithEnviron(environ(vars)))
	m, err := jwtx.NewManager(ctx, store, jwtx.WithGenerator(gen))
	require.NoError(t, err)
	require.Equal(t, "v1", m.ActiveKID())

	_, err = m.Rotate(ctx, "V1")
	require.ErrorIs(t, err, jwtx.ErrKIDExists)

	rot, err := m.Rotate(ctx, "Key-2")
	require.NoError(t, err)
	assert.Equal(t, "key_2", rot.KID)
	assert.Equal(t, []string{"JWT_KEY_KEY_2_PRIVATE_B64", "JWT_KEY_KEY_2_PUBLIC_B64"}, sortedKeys(rot.Env))

	for k, v := range rot.Env {
		vars[k] = v
	}
	require.NoError(t, m.Load(ctx))
	assert.Contains(t, m.PublicKeys(), rot.KID)

	exported, err := m.ExportEnv("V1")
	require.NoError(t, err)
	assert.Len(t, exported, 2)
}
