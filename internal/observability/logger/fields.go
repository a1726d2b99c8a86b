package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - MAIL
// =================================================================================

// To crea un campo para el destinatario de un email.
func To(v string) zap.Field {
	return zap.String("to", v)
}

// Subject crea un campo para el subject de un email.
func Subject(v string) zap.Field {
	return zap.String("subject", v)
}

// Host crea un campo para el host SMTP.
func Host(v string) zap.Field {
	return zap.String("host", v)
}

// Port crea un campo para el puerto SMTP.
func Port(v int) zap.Field {
	return zap.Int("port", v)
}

// MessageID crea un campo para el Message-Id asignado.
func MessageID(v string) zap.Field {
	return zap.String("message_id", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - GENERALES
// =================================================================================

// Component crea un campo para el componente que emite el log.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación en curso.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para una cantidad.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any crea un campo genérico para cualquier valor.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
