package jwt

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultEnvPrefix es el prefijo de las variables de claves.
const DefaultEnvPrefix = "JWT_KEY"

// EnvKeyStore lee pares desde variables {PREFIX}_{KID}_{PRIVATE|PUBLIC}[_B64].
// Es de solo lectura: las claves nuevas se publican con ExportEnv y el
// operador las aplica al entorno del proceso.
type EnvKeyStore struct {
	prefix  string
	pattern *regexp.Regexp
	environ func() []string
	now     func() time.Time

	mu      sync.Mutex
	retired map[string]struct{}
}

// EnvOption configura un EnvKeyStore.
type EnvOption func(*EnvKeyStore)

// WithEnviron reemplaza os.Environ (tests).
func WithEnviron(fn func() []string) EnvOption {
	return func(s *EnvKeyStore) { s.environ = fn }
}

// WithEnvClock reemplaza el reloj usado como CreatedAt.
func WithEnvClock(fn func() time.Time) EnvOption {
	return func(s *EnvKeyStore) { s.now = fn }
}

func NewEnvKeyStore(prefix string, opts ...EnvOption) *EnvKeyStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	s := &EnvKeyStore{
		prefix:  prefix,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_(?P<kid>.+?)_(?P<type>PRIVATE|PUBLIC)(?P<b64>_B64)?$`),
		environ: os.Environ,
		now:     time.Now,
		retired: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *EnvKeyStore) Name() Source { return SourceEnvironment }

// Prefix retorna el prefijo de variables.
func (s *EnvKeyStore) Prefix() string { return s.prefix }

type envPart struct {
	value   string
	flagged bool
	set     bool
}

// Load agrupa las variables por kid (en minúsculas). Un registro requiere PUBLIC;
// PRIVATE es opcional. Si conviven X y X_B64 gana la variante _B64.
// Todos los registros comparten CreatedAt = instante de carga.
func (s *EnvKeyStore) Load(ctx context.Context) ([]KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type parts struct{ pub, priv envPart }
	byKID := map[string]*parts{}

	for _, kv := range s.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, s.prefix) {
			continue
		}
		m := s.pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		kid := EnvKID(m[1])
		p := byKID[kid]
		if p == nil {
			p = &parts{}
			byKID[kid] = p
		}
		target := &p.pub
		if m[2] == "PRIVATE" {
			target = &p.priv
		}
		flagged := m[3] != ""
		if target.set && target.flagged && !flagged {
			continue
		}
		*target = envPart{value: value, flagged: flagged, set: true}
	}

	kids := make([]string, 0, len(byKID))
	for kid, p := range byKID {
		if p.pub.set {
			kids = append(kids, kid)
		}
	}
	sort.Strings(kids)

	s.mu.Lock()
	defer s.mu.Unlock()

	loadedAt := s.now().UTC()
	out := make([]KeyRecord, 0, len(kids))
	for _, kid := range kids {
		p := byKID[kid]
		rec := KeyRecord{
			KID:       kid,
			PublicPEM: decodeEnvValue(p.pub.value, p.pub.flagged),
			CreatedAt: loadedAt,
			Source:    SourceEnvironment,
		}
		if p.priv.set {
			if _, gone := s.retired[kid]; !gone {
				rec.PrivatePEM = decodeEnvValue(p.priv.value, p.priv.flagged)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Retire marca kid como retirado en memoria: las variables del proceso no se
// tocan y la marca sobrevive a recargas hasta que el proceso termina.
func (s *EnvKeyStore) Retire(_ context.Context, kid string) error {
	s.mu.Lock()
	s.retired[EnvKID(kid)] = struct{}{}
	s.mu.Unlock()
	return nil
}

// =================================================================================
// BASE64
// =================================================================================

// decodeEnvValue decide cómo interpretar un valor de entorno:
//   - sufijo _B64 o valor que parece Base64 → se intenta decodificar
//   - si la decodificación falla o no da UTF-8 válido → se usa el valor crudo
//
// Un PEM crudo nunca es Base64 válido ("-----BEGIN" tiene guiones), así que una
// mala adivinanza termina fallando al parsear la clave, no en silencio.
func decodeEnvValue(value string, flagged bool) string {
	if flagged || looksBase64(value) {
		if dec, ok := decodeBase64(value); ok {
			return dec
		}
	}
	return value
}

// looksBase64: no vacío, al menos 10 caracteres y alfabeto/padding válidos
// una vez quitados los espacios.
func looksBase64(value string) bool {
	if len(value) < 10 {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(stripSpace(value))
	return err == nil
}

func decodeBase64(value string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(stripSpace(value))
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// =================================================================================
// EXPORT
// =================================================================================

// EnvKID normaliza un kid como lo reconstruye Load desde el nombre de variable:
// minúsculas y '-' → '_'.
func EnvKID(kid string) string { return strings.ToLower(strings.ReplaceAll(kid, "-", "_")) }

// EnvVarName arma el nombre de variable: kid en mayúsculas y '-' → '_'.
func EnvVarName(prefix, kid, part string) string {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	k := strings.ToUpper(strings.ReplaceAll(kid, "-", "_"))
	return fmt.Sprintf("%s_%s_%s_B64", prefix, k, part)
}

// ExportEnv convierte registros a variables {PREFIX}_{KID}_{PRIVATE|PUBLIC}_B64.
// PRIVATE solo aparece si el registro aún puede firmar. No muta nada.
func ExportEnv(prefix string, records ...KeyRecord) map[string]string {
	out := make(map[string]string, len(records)*2)
	for _, r := range records {
		out[EnvVarName(prefix, r.KID, "PUBLIC")] = base64.StdEncoding.EncodeToString([]byte(r.PublicPEM))
		if r.CanSign() {
			out[EnvVarName(prefix, r.KID, "PRIVATE")] = base64.StdEncoding.EncodeToString([]byte(r.PrivatePEM))
		}
	}
	return out
}
