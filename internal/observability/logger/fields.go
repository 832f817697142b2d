package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// DurationMs registra la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// =================================================================================
// KEYS / TOKENS
// =================================================================================

// KID identifica el par de claves involucrado.
func KID(v string) zap.Field { return zap.String("kid", v) }

// ActiveKID es el kid que firma tokens nuevos luego de una operación.
func ActiveKID(v string) zap.Field { return zap.String("active_kid", v) }

// Backend es el backend de almacenamiento de claves (filesystem | environment).
func Backend(v string) zap.Field { return zap.String("backend", v) }

// Reason explica por qué se rechazó un token. Nunca se devuelve al cliente.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// =================================================================================
// NEGOCIO
// =================================================================================

func UserID(v string) zap.Field { return zap.String("user_id", v) }
func Login(v string) zap.Field { return zap.String("login", v) }
func Role(v string) zap.Field { return zap.String("role", v) }

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field { return zap.String("op", v) }
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field { return zap.Error(err) }
func Count(v int) zap.Field { return zap.Int("count", v) }

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
