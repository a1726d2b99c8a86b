package email

import (
	"crypto/tls"
	"fmt"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/settings"
	"github.com/dropDatabas3/mailjohn/internal/util"
	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
)

// OutboundMessage es un mensaje saliente. Transient: se construye por llamada,
// no se persiste. Text vacío se deriva del HTML sin tags al momento de enviar.
type OutboundMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string

	// From efectivo, resuelto por el service a partir de los settings.
	FromAddress string
	FromName    string
}

// Transport es un cliente SMTP con estado: se construye desde configuración,
// se verifica una vez y se reutiliza entre llamadas.
type Transport interface {
	// Verify hace un round-trip de conexión/auth contra el servidor.
	Verify() error

	// Send envía el mensaje y retorna el Message-Id asignado.
	Send(msg OutboundMessage) (string, error)

	// Host retorna el host SMTP (para logs y métricas).
	Host() string
}

// TransportFactory construye un Transport desde configuración.
type TransportFactory func(cfg TransportConfig) Transport

// TransportConfig son los parámetros de construcción del transporte.
type TransportConfig struct {
	Host   string
	Port   int
	Secure bool // SSL implícito (derivado: port == 465)
	User   string
	Pass   string
}

// TransportConfigFromSettings deriva la configuración del transporte:
// puerto default 587, secure si el puerto es 465, username con fallback al
// from-address y password default vacía.
func TransportConfigFromSettings(s *settings.SystemSettings) TransportConfig {
	port := s.SMTPPort
	if port == 0 {
		port = 587
	}
	user := s.SMTPUser
	if user == "" {
		user = s.FromAddress
	}
	return TransportConfig{
		Host:   s.SMTPHost,
		Port:   port,
		Secure: port == 465,
		User:   user,
		Pass:   s.SMTPPassword,
	}
}

// SMTPTransport implementa Transport usando go-mail.
type SMTPTransport struct {
	dialer *mail.Dialer
}

// NewSMTPTransport crea un SMTPTransport con los parámetros dados.
func NewSMTPTransport(cfg TransportConfig) Transport {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.SSL = cfg.Secure
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &SMTPTransport{dialer: d}
}

// Verify abre y cierra una conexión autenticada.
// Un transporte solo queda usable después de un Verify exitoso.
func (t *SMTPTransport) Verify() error {
	sc, err := t.dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp verify: %w", err)
	}
	return sc.Close()
}

// Send envía un email con contenido HTML y texto plano.
// SMTP no devuelve un identificador del servidor, así que el Message-Id se
// asigna acá y se incluye en los headers del mensaje.
func (t *SMTPTransport) Send(msg OutboundMessage) (string, error) {
	log := logger.L().With(
		logger.Component("SMTPTransport"),
		logger.Host(t.dialer.Host),
		logger.Port(t.dialer.Port),
		logger.To(util.MaskEmail(msg.To)),
	)

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.dialer.Host)

	m := mail.NewMessage()
	m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-Id", id)

	// Preferimos multipart/alternative (txt + html)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text == "" {
			m.SetBody("text/html", msg.HTML)
		} else {
			m.AddAlternative("text/html", msg.HTML)
		}
	}

	if err := t.dialer.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return "", fmt.Errorf("smtp send: %w", err)
	}

	log.Debug("email sent", logger.MessageID(id))
	return id, nil
}

// Host retorna el host SMTP configurado.
func (t *SMTPTransport) Host() string {
	return t.dialer.Host
}
