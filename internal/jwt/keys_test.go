package jwt_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
)

func TestGenerateKeyPairFormat(t *testing.T) {
	gen := cachedGenerator(t)
	privPEM, pubPEM, err := gen()
	require.NoError(t, err)

	privBlock, rest := pem.Decode([]byte(privPEM))
	require.NotNil(t, privBlock)
	assert.Empty(t, rest)
	assert.Equal(t, "PRIVATE KEY", privBlock.Type)
	assert.Empty(t, privBlock.Headers)

	key, err := x509.ParsePKCS8PrivateKey(privBlock.Bytes)
	require.NoError(t, err)
	priv, ok := key.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.Equal(t, 2048, priv.N.BitLen())
	assert.Equal(t, 65537, priv.E)

	pubBlock, _ := pem.Decode([]byte(pubPEM))
	require.NotNil(t, pubBlock)
	assert.Equal(t, "PUBLIC KEY", pubBlock.Type)
	pubAny, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	require.NoError(t, err)
	pub, ok := pubAny.(*rsa.PublicKey)
	require.True(t, ok)
	assert.True(t, pub.Equal(&priv.PublicKey))
}

func TestValidKID(t *testing.T) {
	for _, kid := range []string{"v1", "key-2024", "key_20260115100000_a1b2c3", "K.1"} {
		assert.True(t, jwtx.ValidKID(kid), kid)
	}
	for _, kid := range []string{"", "../etc", "a/b", `a\b`, ".hidden", "has space", "-dash"} {
		assert.False(t, jwtx.ValidKID(kid), kid)
	}
}

func TestNewKIDFormat(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	kid := jwtx.NewKID(now)
	assert.Regexp(t, regexp.MustCompile(`^key_20260304050607_[0-9a-f]{6}$`), kid)
	assert.True(t, jwtx.ValidKID(kid))
	assert.NotEqual(t, kid, jwtx.NewKID(now), "same second must not collide")
}
