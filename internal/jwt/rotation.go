package jwt

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

// entry es un registro con su material ya parseado.
type entry struct {
	rec     KeyRecord
	pub     *rsa.PublicKey
	pubErr  error
	priv    *rsa.PrivateKey
	privErr error
}

// keySet es un snapshot inmutable. Cada Load construye uno nuevo y lo publica
// de forma atómica; los lectores nunca ven un set a medio cargar.
type keySet struct {
	order    []string
	entries  map[string]*entry
	active   string
	loadedAt time.Time

	jwksOnce sync.Once
	jwks     JWKS
	jwksErr  error
}

func buildKeySet(records []KeyRecord, loadedAt time.Time) *keySet {
	ks := &keySet{
		order:    make([]string, 0, len(records)),
		entries:  make(map[string]*entry, len(records)),
		loadedAt: loadedAt,
	}
	var newest *entry
	for _, rec := range records {
		if rec.KID == "" || rec.PublicPEM == "" {
			continue
		}
		e := &entry{rec: rec}
		e.pub, e.pubErr = jwtv5.ParseRSAPublicKeyFromPEM([]byte(rec.PublicPEM))
		if rec.CanSign() {
			e.priv, e.privErr = jwtv5.ParseRSAPrivateKeyFromPEM([]byte(rec.PrivatePEM))
		}
		if _, dup := ks.entries[rec.KID]; !dup {
			ks.order = append(ks.order, rec.KID)
		}
		ks.entries[rec.KID] = e

		// activa: mayor CreatedAt entre las que tienen privada; empate → mayor kid
		if !rec.CanSign() {
			continue
		}
		if newest == nil ||
			rec.CreatedAt.After(newest.rec.CreatedAt) ||
			(rec.CreatedAt.Equal(newest.rec.CreatedAt) && rec.KID > newest.rec.KID) {
			newest = e
		}
	}
	if newest != nil {
		ks.active = newest.rec.KID
	}
	return ks
}

func (ks *keySet) jwksDoc() (JWKS, error) {
	ks.jwksOnce.Do(func() {
		doc := JWKS{Keys: make([]JWK, 0, len(ks.order))}
		var errs []error
		for _, kid := range ks.order {
			e := ks.entries[kid]
			if e.pubErr != nil {
				errs = append(errs, fmt.Errorf("%w: kid %s: %v", ErrInvalidKeyMaterial, kid, e.pubErr))
				continue
			}
			doc.Keys = append(doc.Keys, rsaJWK(kid, e.pub))
		}
		ks.jwks, ks.jwksErr = doc, errors.Join(errs...)
	})
	return ks.jwks, ks.jwksErr
}

// KeyInfo describe una clave sin exponer material privado.
type KeyInfo struct {
	KID       string    `json:"kid"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	CanSign   bool      `json:"can_sign"`
	Active    bool      `json:"active"`
}

// Rotation es el resultado de Rotate.
type Rotation struct {
	KID string `json:"kid"`
	// Activated es false cuando el backend no persiste (environment): la clave
	// nueva solo se activa cuando el operador aplica Env y recarga.
	Activated bool `json:"activated"`
	// Env trae las variables a exportar; solo se llena con backend environment.
	Env map[string]string `json:"env,omitempty"`
}

// Manager mantiene el set de claves, elige la activa y ofrece rotate/retire/export/JWKS.
type Manager struct {
	backend   Backend
	generate  KeyGenerator
	envPrefix string
	now       func() time.Time
	log       *zap.Logger

	current atomic.Pointer[keySet]
	// writeMu serializa las operaciones que mutan el backend. Los lectores no lo usan.
	writeMu sync.Mutex
}

// Option configura el Manager.
type Option func(*Manager)

// WithGenerator reemplaza el generador RSA (tests).
func WithGenerator(g KeyGenerator) Option { return func(m *Manager) { m.generate = g } }

// WithEnvPrefix define el prefijo usado por ExportEnv.
func WithEnvPrefix(p string) Option { return func(m *Manager) { m.envPrefix = p } }

// WithManagerClock reemplaza el reloj usado para sintetizar kids.
func WithManagerClock(fn func() time.Time) Option { return func(m *Manager) { m.now = fn } }

// WithLogger reemplaza el logger del componente.
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

// NewManager construye el manager y hace la primera carga. Un set vacío no es error.
func NewManager(ctx context.Context, backend Backend, opts ...Option) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("keys backend is nil")
	}
	m := &Manager{
		backend:   backend,
		generate:  GenerateKeyPair,
		envPrefix: DefaultEnvPrefix,
		now:       time.Now,
	}
	if es, ok := backend.(*EnvKeyStore); ok {
		m.envPrefix = es.Prefix()
	}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = logger.Named("keys")
	}
	m.log = m.log.With(logger.Backend(string(backend.Name())))
	m.current.Store(buildKeySet(nil, m.now()))

	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Backend retorna el tipo de backend.
func (m *Manager) Backend() Source { return m.backend.Name() }

func (m *Manager) snapshot() *keySet { return m.current.Load() }

// Load relee el backend y reemplaza el set completo.
func (m *Manager) Load(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) error {
	records, err := m.backend.Load(ctx)
	if err != nil {
		m.log.Error("keys load failed", logger.Err(err))
		return fmt.Errorf("load keys: %w", err)
	}
	ks := buildKeySet(records, m.now())
	m.current.Store(ks)

	for _, kid := range ks.order {
		e := ks.entries[kid]
		if e.pubErr != nil {
			m.log.Error("public key material cannot be parsed", logger.KID(kid), logger.Err(e.pubErr))
		}
		if e.privErr != nil {
			m.log.Error("private key material cannot be parsed", logger.KID(kid), logger.Err(e.privErr))
		}
	}
	if ks.active == "" {
		m.log.Warn("key set has no signing key", logger.Count(len(ks.order)))
	} else {
		m.log.Debug("keys loaded", logger.Count(len(ks.order)), logger.ActiveKID(ks.active))
	}
	return nil
}

// Generate crea un par para kid. Solo los backends que implementan Writer lo
// persisten; con environment el par se devuelve y nada más.
//
// Un kid existente nunca se pisa: la verificación se repite bajo writeMu y el
// backend rechaza archivos ya presentes (ErrKIDExists) aunque otro proceso los
// haya creado después del último Load.
func (m *Manager) Generate(ctx context.Context, kid string) (privatePEM, publicPEM string, err error) {
	kid = m.canonicalKID(kid)
	if err := m.checkNewKID(kid); err != nil {
		return "", "", err
	}
	privatePEM, publicPEM, err = m.generate()
	if err != nil {
		return "", "", fmt.Errorf("%w: generate %s: %w", ErrNoKeyGenerated, kid, err)
	}
	w, ok := m.backend.(Writer)
	if !ok {
		return privatePEM, publicPEM, nil
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.checkNewKID(kid); err != nil {
		return "", "", err
	}
	if err := w.Save(ctx, kid, privatePEM, publicPEM); err != nil {
		if errors.Is(err, ErrKIDExists) || errors.Is(err, ErrInvalidKID) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%w: save %s: %w", ErrNoKeyGenerated, kid, err)
	}
	return privatePEM, publicPEM, nil
}

func (m *Manager) checkNewKID(kid string) error {
	if !ValidKID(kid) {
		return fmt.Errorf("%w: %q", ErrInvalidKID, kid)
	}
	if _, exists := m.snapshot().entries[kid]; exists {
		return fmt.Errorf("%w: %s", ErrKIDExists, kid)
	}
	return nil
}

// canonicalKID devuelve el kid con el que el backend lo va a cargar.
func (m *Manager) canonicalKID(kid string) string {
	if m.backend.Name() == SourceEnvironment {
		return EnvKID(kid)
	}
	return kid
}

// Rotate genera un par nuevo (kid sintetizado si newKID es vacío) y recarga.
// Con backend environment además devuelve las variables a exportar.
// Solo las fallas del generador o del guardado se reportan como ErrNoKeyGenerated.
func (m *Manager) Rotate(ctx context.Context, newKID string) (Rotation, error) {
	if newKID == "" {
		newKID = NewKID(m.now())
	}
	newKID = m.canonicalKID(newKID)
	log := m.log.With(logger.Op("rotate"), logger.KID(newKID))

	priv, pub, err := m.Generate(ctx, newKID)
	if err != nil {
		log.Error("key rotation failed", logger.Err(err))
		return Rotation{}, err
	}

	res := Rotation{KID: newKID}
	if _, persisted := m.backend.(Writer); !persisted {
		res.Env = ExportEnv(m.envPrefix, KeyRecord{KID: newKID, PrivatePEM: priv, PublicPEM: pub})
	}

	if err := m.Load(ctx); err != nil {
		return res, err
	}
	res.Activated = m.ActiveKID() == newKID
	if res.Env != nil {
		log.Warn("new key is not persisted: export its variables and reload the process",
			logger.Count(len(res.Env)))
	} else {
		log.Info("signing key rotated", logger.ActiveKID(m.ActiveKID()))
	}
	return res, nil
}

// Retire deja kid solo para verificación. Error ErrUnknownKey si no existe.
func (m *Manager) Retire(ctx context.Context, kid string) error {
	kid = m.canonicalKID(kid)
	if _, ok := m.snapshot().entries[kid]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.backend.Retire(ctx, kid); err != nil {
		return fmt.Errorf("retire %s: %w", kid, err)
	}
	if err := m.loadLocked(ctx); err != nil {
		return err
	}
	m.log.Info("signing key retired", logger.KID(kid), logger.ActiveKID(m.ActiveKID()))
	return nil
}

// ActiveKID retorna el kid activo o "" si no hay.
func (m *Manager) ActiveKID() string { return m.snapshot().active }

// ActiveKey retorna el registro que firma tokens nuevos.
func (m *Manager) ActiveKey() (KeyRecord, error) {
	e, err := m.activeEntry(m.snapshot())
	if err != nil {
		return KeyRecord{}, err
	}
	return e.rec, nil
}

func (m *Manager) activeEntry(ks *keySet) (*entry, error) {
	if ks.active == "" {
		m.log.Error("no active signing key", logger.Count(len(ks.order)))
		return nil, ErrNoActiveKey
	}
	e := ks.entries[ks.active]
	if e == nil || !e.rec.CanSign() {
		return nil, fmt.Errorf("%w: %s", ErrPrivateKeyUnavailable, ks.active)
	}
	return e, nil
}

// signingKey es ActiveKey con la privada ya parseada, sobre un único snapshot.
func (m *Manager) signingKey() (string, *rsa.PrivateKey, error) {
	e, err := m.activeEntry(m.snapshot())
	if err != nil {
		return "", nil, err
	}
	if e.privErr != nil {
		return "", nil, fmt.Errorf("%w: kid %s: %v", ErrInvalidKeyMaterial, e.rec.KID, e.privErr)
	}
	return e.rec.KID, e.priv, nil
}

// verificationKey busca la pública de kid (activa o retirada).
func (m *Manager) verificationKey(kid string) (*rsa.PublicKey, error) {
	e, ok := m.snapshot().entries[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKID, kid)
	}
	if e.pubErr != nil {
		return nil, fmt.Errorf("%w: kid %s: %v", ErrInvalidKeyMaterial, kid, e.pubErr)
	}
	return e.pub, nil
}

// PublicKeys retorna kid → PEM público de todos los registros.
func (m *Manager) PublicKeys() map[string]string {
	ks := m.snapshot()
	out := make(map[string]string, len(ks.order))
	for _, kid := range ks.order {
		out[kid] = ks.entries[kid].rec.PublicPEM
	}
	return out
}

// List describe las claves en el orden de carga.
func (m *Manager) List() []KeyInfo {
	ks := m.snapshot()
	out := make([]KeyInfo, 0, len(ks.order))
	for _, kid := range ks.order {
		rec := ks.entries[kid].rec
		out = append(out, KeyInfo{
			KID:       kid,
			Source:    rec.Source,
			CreatedAt: rec.CreatedAt,
			CanSign:   rec.CanSign(),
			Active:    kid == ks.active,
		})
	}
	return out
}

// JWKS publica todas las claves (activa y retiradas) en orden de carga.
// Una clave con PEM inválido se omite y el error se devuelve junto al documento.
func (m *Manager) JWKS() (JWKS, error) {
	return m.snapshot().jwksDoc()
}

// ExportEnv exporta kid (o todas si kid es "") como variables de entorno Base64.
func (m *Manager) ExportEnv(kid string) (map[string]string, error) {
	ks := m.snapshot()
	if kid != "" {
		kid = m.canonicalKID(kid)
		e, ok := ks.entries[kid]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
		}
		return ExportEnv(m.envPrefix, e.rec), nil
	}
	recs := make([]KeyRecord, 0, len(ks.order))
	for _, k := range ks.order {
		recs = append(recs, ks.entries[k].rec)
	}
	return ExportEnv(m.envPrefix, recs...), nil
}
