package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
)

// Status de un intento de envío.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Entry es una línea del log de auditoría. Inmutable una vez escrita:
// el archivo es append-only, nunca se muta ni se borra desde este core.
type Entry struct {
	Timestamp time.Time
	To        string
	Subject   string
	Status    string // StatusSuccess | StatusFailed
	MessageID string // opcional
	Error     string // opcional
}

// Log escribe una línea por intento de envío en un archivo append-only.
// El formato de línea es contrato externo:
//
//	[<ISO ts>] [<SUCCESS|FAILED>] To: <addr> | Subject: <subj>[ | MessageID: <id>][ | Error: <msg>]
type Log struct {
	path string
	mu   sync.Mutex
}

// DefaultPath es la ruta relativa fija del log de notificaciones.
const DefaultPath = "LOGS/email_notifications.log"

// New crea un Log sobre baseDir/LOGS/email_notifications.log.
// baseDir vacío equivale al directorio de trabajo.
func New(baseDir string) *Log {
	if baseDir == "" {
		baseDir = "."
	}
	return &Log{path: filepath.Join(baseDir, DefaultPath)}
}

// Path retorna la ruta del archivo de log.
func (l *Log) Path() string {
	return l.path
}

// Append agrega una entrada al log. Best-effort: cualquier fallo de escritura
// se registra y se descarta, nunca aborta el flujo de notificación.
func (l *Log) Append(e Entry) {
	if err := l.append(e); err != nil {
		logger.L().Warn("audit log append failed",
			logger.Component("auditlog"),
			logger.Err(err),
		)
	}
}

func (l *Log) append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// El directorio se verifica y crea antes de cada append (idempotente).
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	// Una sola escritura con la línea completa: entradas de llamadas
	// concurrentes se intercalan pero nunca se pisan.
	if _, err := f.WriteString(FormatLine(e)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// FormatLine renderiza una entrada como línea de log terminada en newline.
func FormatLine(e Entry) string {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] To: %s | Subject: %s",
		ts.UTC().Format(time.RFC3339), e.Status, e.To, e.Subject)
	if e.MessageID != "" {
		fmt.Fprintf(&b, " | MessageID: %s", e.MessageID)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " | Error: %s", e.Error)
	}
	b.WriteString("\n")
	return b.String()
}
