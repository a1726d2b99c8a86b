package email

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/auditlog"
	"github.com/dropDatabas3/mailjohn/internal/metrics"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/settings"
	"github.com/dropDatabas3/mailjohn/internal/util"
	"golang.org/x/sync/singleflight"
)

// DefaultSiteName es el display name del remitente cuando los settings no
// traen site_name.
const DefaultSiteName = "Asset Management System"

// errNotConfigured es el texto que queda en el log de auditoría cuando un
// envío se corta por falta de configuración. Contrato con lectores del log.
const errNotConfigured = "Email service not configured"

// ErrMissingDeps indica que faltan dependencias obligatorias del service.
var ErrMissingDeps = errors.New("email: settings provider and audit log are required")

// Service es el notificador saliente. Dueño exclusivo del Transport: ningún
// otro componente lo sostiene ni lo muta. Todas las operaciones públicas
// retornan bool y nunca propagan excepciones al caller; el detalle queda en
// el log de auditoría y en los logs estructurados.
type Service struct {
	provider settings.Provider
	audit    *auditlog.Log
	factory  TransportFactory
	now      func() time.Time

	mu        sync.Mutex
	transport Transport

	// sf colapsa inicializaciones concurrentes en un solo intento.
	sf singleflight.Group
}

// ServiceConfig contiene las dependencias del Service.
type ServiceConfig struct {
	Settings settings.Provider
	Audit    *auditlog.Log

	// TransportFactory es opcional; default NewSMTPTransport.
	TransportFactory TransportFactory

	// Now es opcional; default time.Now. Inyectable para tests de fechas.
	Now func() time.Time
}

// NewService crea el notificador. El Transport arranca sin inicializar y se
// construye lazy en el primer envío (o con Initialize explícito).
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Settings == nil || cfg.Audit == nil {
		return nil, ErrMissingDeps
	}
	if cfg.TransportFactory == nil {
		cfg.TransportFactory = NewSMTPTransport
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		provider: cfg.Settings,
		audit:    cfg.Audit,
		factory:  cfg.TransportFactory,
		now:      cfg.Now,
	}, nil
}

// Initialize construye y verifica el transporte SMTP desde los settings.
// Retorna false sin tocar la red si falta host o from-address: ese es el
// estado "no configurado" documentado, no un error para el caller.
func (s *Service) Initialize(ctx context.Context) bool {
	ok, _, _ := s.sf.Do("transport-init", func() (any, error) {
		return s.initialize(ctx), nil
	})
	return ok.(bool)
}

func (s *Service) initialize(ctx context.Context) bool {
	log := logger.From(ctx).With(
		logger.Component("email.Service"),
		logger.Op("Initialize"),
	)

	cfg, err := s.provider.GetSystemSettings(ctx)
	if err != nil {
		log.Error("failed to load system settings", logger.Err(err))
		return false
	}
	if !cfg.MailConfigured() {
		log.Info("email not configured: smtp host or from address missing")
		return false
	}

	t := s.factory(TransportConfigFromSettings(cfg))
	if err := t.Verify(); err != nil {
		metrics.TransportInitFailures.Inc()
		log.Error("smtp verification failed",
			logger.Host(t.Host()),
			logger.Err(err),
		)
		// Se descarta solo la instancia de este intento: un handle verificado
		// instalado por otro intento concurrente queda intacto.
		return false
	}

	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()

	log.Info("smtp transport verified", logger.Host(t.Host()))
	return true
}

// currentTransport retorna el handle compartido (nil si no está inicializado).
func (s *Service) currentTransport() Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

// SendEmail envía un mensaje por el transporte compartido, inicializándolo
// inline si hace falta. Escribe exactamente una entrada de auditoría por
// invocación, sea cual sea la rama tomada, y nunca lanza hacia el caller.
func (s *Service) SendEmail(ctx context.Context, msg OutboundMessage) bool {
	log := logger.From(ctx).With(
		logger.Component("email.Service"),
		logger.Op("SendEmail"),
		// Dirección completa solo en el log de auditoría.
		logger.To(util.MaskEmail(msg.To)),
	)

	t := s.currentTransport()
	if t == nil {
		s.Initialize(ctx)
		t = s.currentTransport()
	}
	if t == nil {
		s.audit.Append(auditlog.Entry{
			Timestamp: s.now(),
			To:        msg.To,
			Subject:   msg.Subject,
			Status:    auditlog.StatusFailed,
			Error:     errNotConfigured,
		})
		return false
	}

	// Los settings pueden haber cambiado desde la inicialización: el display
	// name y el from efectivo se releen frescos en cada envío.
	cfg, err := s.provider.GetSystemSettings(ctx)
	if err != nil || !cfg.MailConfigured() {
		if err != nil {
			log.Error("failed to load system settings", logger.Err(err))
		}
		s.audit.Append(auditlog.Entry{
			Timestamp: s.now(),
			To:        msg.To,
			Subject:   msg.Subject,
			Status:    auditlog.StatusFailed,
			Error:     errNotConfigured,
		})
		return false
	}

	msg.FromAddress = cfg.FromAddress
	msg.FromName = cfg.SiteName
	if msg.FromName == "" {
		msg.FromName = DefaultSiteName
	}
	if msg.Text == "" {
		msg.Text = StripHTMLTags(msg.HTML)
	}

	id, err := t.Send(msg)
	if err != nil {
		metrics.EmailSendFailure.WithLabelValues(t.Host()).Inc()
		s.audit.Append(auditlog.Entry{
			Timestamp: s.now(),
			To:        msg.To,
			Subject:   msg.Subject,
			Status:    auditlog.StatusFailed,
			Error:     err.Error(),
		})
		log.Warn("email send failed", logger.Err(err))
		return false
	}

	metrics.EmailSendSuccess.WithLabelValues(t.Host()).Inc()
	s.audit.Append(auditlog.Entry{
		Timestamp: s.now(),
		To:        msg.To,
		Subject:   msg.Subject,
		Status:    auditlog.StatusSuccess,
		MessageID: id,
	})
	log.Info("email sent", logger.Subject(msg.Subject), logger.MessageID(id))
	return true
}
