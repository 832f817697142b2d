package jwt

import "errors"

// Errores de gestión de claves.
var (
	ErrNoActiveKey           = errors.New("no_active_signing_key")
	ErrPrivateKeyUnavailable = errors.New("private_key_unavailable")
	ErrUnknownKey            = errors.New("unknown_key")
	ErrNoKeyGenerated        = errors.New("no_key_generated")
	ErrInvalidKID            = errors.New("invalid_kid")
	ErrKIDExists             = errors.New("kid_already_exists")
	ErrInvalidKeyMaterial    = errors.New("invalid_key_material")
)

// Errores de verificación de tokens.
var (
	ErrMissingKID   = errors.New("missing_kid")
	ErrUnknownKID   = errors.New("unknown_kid")
	ErrMalformed    = errors.New("malformed_token")
	ErrBadSignature = errors.New("bad_signature")
	ErrExpired      = errors.New("token_expired")
	ErrNotYetValid  = errors.New("token_not_yet_valid")
)

// IsVerificationError indica si err proviene de Verify (token rechazado)
// y no de un problema operativo del keystore.
func IsVerificationError(err error) bool {
	for _, target := range []error{ErrMissingKID, ErrUnknownKID, ErrMalformed, ErrBadSignature, ErrExpired, ErrNotYetValid} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
