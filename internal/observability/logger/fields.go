package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Field evita que los callers importen zap solo para armar slices de campos.
type Field = zap.Field

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// NEGOCIO
// =================================================================================

// PaymentAttempt identifica el intento de pago evaluado por el gate.
func PaymentAttempt(v string) zap.Field {
	return zap.String("payment_attempt_id", v)
}

// ChallengeID identifica un challenge de verificación.
func ChallengeID(v string) zap.Field {
	return zap.String("challenge_id", v)
}

// Phone loguea el número enmascarado (solo prefijo y últimos 3 dígitos).
func Phone(v string) zap.Field {
	return zap.String("phone", MaskPhone(v))
}

// Tier es el nivel de riesgo (low/medium/high).
func Tier(v string) zap.Field {
	return zap.String("risk_tier", v)
}

// Decision es la decisión final del gate.
func Decision(v string) zap.Field {
	return zap.String("decision", v)
}

// Provider es el proveedor de telecom usado por el oracle.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// MaskPhone deja visible el código de país y los últimos 3 dígitos.
func MaskPhone(v string) string {
	if len(v) <= 7 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", len(v)-7) + v[len(v)-3:]
}

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }

func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Time(key string, v time.Time) zap.Field {
	return zap.Time(key, v)
}
