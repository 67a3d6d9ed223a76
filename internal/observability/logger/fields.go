package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar del dominio de autorización.

// ClientID crea un campo para el ID del cliente OAuth.
func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

// Subject crea un campo para la identidad del usuario que otorgó.
func Subject(v string) zap.Field {
	return zap.String("subject", v)
}

// Scope crea un campo para un scope string.
func Scope(v string) zap.Field {
	return zap.String("scope", v)
}

// GrantID crea un campo para el ID de un grant.
func GrantID(v string) zap.Field {
	return zap.String("grant_id", v)
}

// KID crea un campo para el key ID de firma.
func KID(v string) zap.Field {
	return zap.String("kid", v)
}

// Decision crea un campo para el resultado allow/deny de una evaluación.
func Decision(allowed bool) zap.Field {
	return zap.Bool("allowed", allowed)
}

// IssuedAt crea un campo para el timestamp de emisión de un token.
func IssuedAt(v time.Time) zap.Field {
	return zap.Time("issued_at", v)
}

// Campos estándar de sistema.

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
