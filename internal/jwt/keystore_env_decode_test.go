package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksBase64(t *testing.T) {
	cases := map[string]bool{
		"":                                         false,
		"QUJD":                                     false, // muy corto
		"LS0tLS1CRUdJTiBQVUJMSUMgS0VZLS0tLS0=":     true,
		"LS0tLS1CRUdJ\nTiBQVUJMSUMg S0VZLS0tLS0=": true,
		"-----BEGIN PUBLIC KEY-----":               false,
		"QUJDREVGR0hJSktM===":                      false, // padding inválido
	}
	for in, want := range cases {
		assert.Equal(t, want, looksBase64(in), "%q", in)
	}
}

func TestDecodeEnvValue(t *testing.T) {
	assert.Equal(t, "-----BEGIN PUBLIC KEY-----", decodeEnvValue("LS0tLS1CRUdJTiBQVUJMSUMgS0VZLS0tLS0=", false))
	assert.Equal(t, "-----BEGIN PUBLIC KEY-----", decodeEnvValue("-----BEGIN PUBLIC KEY-----", false))
	// flagged pero inválido: crudo
	assert.Equal(t, "%%%", decodeEnvValue("%%%", true))
	// Base64 válido que no es UTF-8: crudo
	assert.Equal(t, "//79/A==", decodeEnvValue("//79/A==", true))
}
