package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	sec "github.com/dropDatabas3/mailjohn/internal/security/secretbox"
	"github.com/dropDatabas3/mailjohn/internal/settings"
	"gopkg.in/yaml.v3"
)

// Provider implementa settings.Provider leyendo un documento YAML del disco.
// El archivo se relee en cada llamada: los settings nunca se cachean, de modo
// que un cambio externo se ve en el próximo envío.
type Provider struct {
	path      string
	masterKey string // opcional, para descifrar smtp_password_enc
}

// NewProvider crea un Provider sobre el archivo dado.
// masterKey puede ser vacía si los settings no llevan password cifrada.
func NewProvider(path, masterKey string) *Provider {
	return &Provider{path: path, masterKey: masterKey}
}

// GetSystemSettings lee y parsea el archivo de settings.
// Si el archivo no existe retorna (nil, nil): sistema sin configurar.
func (p *Provider) GetSystemSettings(ctx context.Context) (*settings.SystemSettings, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", p.path, err)
	}

	var s settings.SystemSettings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", p.path, err)
	}

	// Descifrar password si viene cifrada y no hay plain.
	if s.SMTPPasswordEnc != "" && s.SMTPPassword == "" && p.masterKey != "" {
		pass, err := sec.DecryptWithKey(p.masterKey, s.SMTPPasswordEnc)
		if err != nil {
			// No abortar: se intenta con password vacía.
			logger.From(ctx).Warn("failed to decrypt smtp password",
				logger.Component("settings.fs"),
				logger.Err(err),
			)
		} else {
			s.SMTPPassword = pass
		}
	}

	return &s, nil
}
