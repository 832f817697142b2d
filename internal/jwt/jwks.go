package jwt

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK es una clave pública RSA en formato RFC 7517.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS es el documento publicado en /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// rsaJWK codifica módulo y exponente big-endian en base64url sin padding.
func rsaJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
