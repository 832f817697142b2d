package tokens

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(RefreshTokenBytes)
	require.NoError(t, err)
	b, err := GenerateOpaqueToken(RefreshTokenBytes)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 86)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, RefreshTokenBytes)

	_, err = GenerateOpaqueToken(0)
	require.Error(t, err)
}

func TestSHA256Base64URL(t *testing.T) {
	assert.Equal(t, "47DEQpj8HBSa-_TImW-5JCeuQeRkm5NMpJWZG3hSuFU", SHA256Base64URL(""))
	assert.Equal(t, SHA256Base64URL("x"), SHA256Base64URL("x"))
	assert.NotEqual(t, SHA256Base64URL("x"), SHA256Base64URL("y"))
}
