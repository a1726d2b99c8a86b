package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	sec "github.com/dropDatabas3/mailjohn/internal/security/secretbox"
	"github.com/dropDatabas3/mailjohn/internal/settings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Provider implementa settings.Provider contra una tabla system_settings en
// Postgres. La fila se lee fresca en cada llamada, sin cache.
type Provider struct {
	pool      *pgxpool.Pool
	masterKey string
}

// New crea un Provider conectado al DSN dado.
func New(ctx context.Context, dsn, masterKey string) (*Provider, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg settings: connect: %w", err)
	}
	return &Provider{pool: pool, masterKey: masterKey}, nil
}

// Close libera el pool de conexiones.
func (p *Provider) Close() {
	p.pool.Close()
}

const selectSettings = `
SELECT smtp_host, smtp_port, smtp_user, smtp_password, smtp_password_enc,
       from_address, site_name, admin_email, company_email,
       enable_admin_notifications, notify_on_iam_expiration, notify_on_vm_expiration,
       iam_expiration_subject, iam_expiration_body
  FROM system_settings
 ORDER BY updated_at DESC
 LIMIT 1`

// GetSystemSettings lee la fila de settings más reciente.
// Sin filas retorna (nil, nil): sistema sin configurar.
func (p *Provider) GetSystemSettings(ctx context.Context) (*settings.SystemSettings, error) {
	var s settings.SystemSettings
	err := p.pool.QueryRow(ctx, selectSettings).Scan(
		&s.SMTPHost, &s.SMTPPort, &s.SMTPUser, &s.SMTPPassword, &s.SMTPPasswordEnc,
		&s.FromAddress, &s.SiteName, &s.AdminEmail, &s.CompanyEmail,
		&s.EnableAdminNotifications, &s.NotifyOnIamExpiration, &s.NotifyOnVmExpiration,
		&s.IamExpirationSubject, &s.IamExpirationBody,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pg settings: query: %w", err)
	}

	if s.SMTPPasswordEnc != "" && s.SMTPPassword == "" && p.masterKey != "" {
		pass, err := sec.DecryptWithKey(p.masterKey, s.SMTPPasswordEnc)
		if err != nil {
			logger.From(ctx).Warn("failed to decrypt smtp password",
				logger.Component("settings.pg"),
				logger.Err(err),
			)
		} else {
			s.SMTPPassword = pass
		}
	}

	return &s, nil
}
