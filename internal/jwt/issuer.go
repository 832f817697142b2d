package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma y verifica tokens RS256 delegando la elección de claves al Manager.
type Issuer struct {
	keys   *Manager
	now    func() time.Time
	leeway time.Duration
	parser *jwtv5.Parser
}

// IssuerOption configura el Issuer.
type IssuerOption func(*Issuer)

// WithClock reemplaza time.Now (tests, simulación de expiración).
func WithClock(fn func() time.Time) IssuerOption { return func(i *Issuer) { i.now = fn } }

// WithLeeway tolera desfase de reloj en exp/nbf/iat. Default 0.
func WithLeeway(d time.Duration) IssuerOption { return func(i *Issuer) { i.leeway = d } }

func NewIssuer(keys *Manager, opts ...IssuerOption) *Issuer {
	i := &Issuer{keys: keys, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	if i.leeway < 0 {
		i.leeway = 0
	}
	// exp/nbf/iat se validan en checkTimes: el validador de golang-jwt ya da
	// por vencido un token en el segundo exacto de exp.
	i.parser = jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodRS256.Alg()}),
		jwtv5.WithoutClaimsValidation(),
	)
	return i
}

// Keys expone el manager subyacente.
func (i *Issuer) Keys() *Manager { return i.keys }

// Issue firma claims con la clave activa. iat, nbf y exp (segundos enteros)
// pisan cualquier valor que traiga el caller.
func (i *Issuer) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl < time.Second {
		return "", fmt.Errorf("ttl must be at least 1s, got %s", ttl)
	}
	kid, priv, err := i.keys.signingKey()
	if err != nil {
		return "", err
	}

	now := i.now().Unix()
	mc := make(jwtv5.MapClaims, len(claims)+3)
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now
	mc["nbf"] = now
	mc["exp"] = now + int64(ttl/time.Second)

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, mc)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify valida un token no confiable y retorna sus claims.
//
// Primero lee el header sin verificar para obtener kid (ErrMissingKID si falta,
// ErrUnknownKID si no está entre las públicas), después verifica firma y
// exp/nbf/iat. El token vale hasta exp inclusive (vencido solo si now > exp). Los números del payload vuelven como float64.
func (i *Issuer) Verify(token string) (map[string]any, error) {
	unverified, _, err := i.parser.ParseUnverified(token, jwtv5.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, ErrMissingKID
	}
	pub, err := i.keys.verificationKey(kid)
	if err != nil {
		return nil, err
	}

	parsed, err := i.parser.ParseWithClaims(token, jwtv5.MapClaims{}, func(*jwtv5.Token) (any, error) {
		return pub, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	mc, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}
	if err := i.checkTimes(mc); err != nil {
		return nil, err
	}
	return map[string]any(mc), nil
}

// checkTimes aplica exp (obligatorio), nbf e iat con el leeway configurado.
func (i *Issuer) checkTimes(mc jwtv5.MapClaims) error {
	now := i.now()

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if exp == nil {
		return fmt.Errorf("%w: exp claim is required", ErrMalformed)
	}
	if now.After(exp.Add(i.leeway)) {
		return fmt.Errorf("%w: expired at %s", ErrExpired, exp.UTC().Format(time.RFC3339))
	}

	nbf, err := mc.GetNotBefore()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if nbf != nil && now.Add(i.leeway).Before(nbf.Time) {
		return fmt.Errorf("%w: valid from %s", ErrNotYetValid, nbf.UTC().Format(time.RFC3339))
	}

	iat, err := mc.GetIssuedAt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if iat != nil && now.Add(i.leeway).Before(iat.Time) {
		return fmt.Errorf("%w: issued at %s", ErrNotYetValid, iat.UTC().Format(time.RFC3339))
	}
	return nil
}

// classify traduce errores de golang-jwt a los errores del paquete.
// La firma se evalúa antes que los claims, así que un token alterado y vencido
// reporta firma inválida.
func classify(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
