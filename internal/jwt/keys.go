package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Source indica de qué backend se cargó una clave.
type Source string

const (
	SourceFilesystem  Source = "filesystem"
	SourceEnvironment Source = "environment"
)

// KeyRecord es un par de claves identificado por kid.
// PrivatePEM vacío significa que la clave fue retirada: sigue verificando
// tokens pero nunca vuelve a firmar.
type KeyRecord struct {
	KID        string
	PublicPEM  string
	PrivatePEM string
	CreatedAt  time.Time
	Source     Source
}

// CanSign indica si el registro tiene material privado.
func (r KeyRecord) CanSign() bool { return r.PrivatePEM != "" }

// KeyGenerator produce un par nuevo en PEM (PKCS8 privado, SPKI público).
type KeyGenerator func() (privatePEM, publicPEM string, err error)

const rsaKeyBits = 2048

// GenerateKeyPair genera un par RSA-2048 (e=65537) con crypto/rand.
func GenerateKeyPair() (privatePEM, publicPEM string, err error) {
	return generateKeyPair(rand.Reader)
}

func generateKeyPair(random io.Reader) (string, string, error) {
	priv, err := rsa.GenerateKey(random, rsaKeyBits)
	if err != nil {
		return "", "", fmt.Errorf("rsa generate: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("marshal pkcs8: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal spki: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return string(privPEM), string(pubPEM), nil
}

var kidPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidKID valida que el kid sea seguro como nombre de archivo y como
// sufijo de variable de entorno.
func ValidKID(kid string) bool {
	return kidPattern.MatchString(kid)
}

// NewKID sintetiza un kid a partir del instante dado: key_YYYYMMDDHHMMSS_<hex>.
// El sufijo aleatorio evita colisiones entre rotaciones del mismo segundo y el
// formato sobrevive sin cambios al ida y vuelta por variables de entorno.
func NewKID(now time.Time) string {
	var b [3]byte
	_, _ = io.ReadFull(rand.Reader, b[:])
	return fmt.Sprintf("key_%s_%x", now.UTC().Format("20060102150405"), b)
}
