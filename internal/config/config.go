package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Audit define dónde vive LOGS/email_notifications.log.
	Audit struct {
		BaseDir string `yaml:"base_dir"`
	} `yaml:"audit"`

	// Settings configura el provider de system settings.
	Settings struct {
		Driver string `yaml:"driver"` // fs | postgres
		Path   string `yaml:"path"`   // driver fs
		DSN    string `yaml:"dsn"`    // driver postgres

		// MasterKey descifra smtp_password_enc (base64/hex de 32 bytes).
		MasterKey string `yaml:"master_key"`
	} `yaml:"settings"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	// Rate limita los endpoints de notify/test. Sin redis_addr queda apagado.
	Rate struct {
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		Max           int    `yaml:"max"`
		Window        string `yaml:"window"`
	} `yaml:"rate"`
}

// Load lee el YAML, aplica defaults y overrides por env.
// path vacío carga solo defaults + env (útil en dev).
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Audit.BaseDir == "" {
		c.Audit.BaseDir = "."
	}
	if strings.TrimSpace(c.Settings.Driver) == "" {
		c.Settings.Driver = "fs"
	}
	if c.Settings.Path == "" {
		c.Settings.Path = "./data/system_settings.yaml"
	}
	if c.Rate.Max == 0 {
		c.Rate.Max = 60
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ReadTimeoutDur retorna el read timeout parseado.
func (c *Config) ReadTimeoutDur() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// WriteTimeoutDur retorna el write timeout parseado.
func (c *Config) WriteTimeoutDur() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("MAILJOHN_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("AUDIT_BASE_DIR"); ok {
		c.Audit.BaseDir = v
	}
	if v, ok := getEnvStr("SETTINGS_DRIVER"); ok {
		c.Settings.Driver = v
	}
	if v, ok := getEnvStr("SETTINGS_PATH"); ok {
		c.Settings.Path = v
	}
	if v, ok := getEnvStr("SETTINGS_DSN"); ok {
		c.Settings.DSN = v
	}
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Settings.MasterKey = v
	}
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Admin.APIKey = v
	}
	if v, ok := getEnvStr("RATE_REDIS_ADDR"); ok {
		c.Rate.RedisAddr = v
	}
	if v, ok := getEnvStr("RATE_REDIS_PASSWORD"); ok {
		c.Rate.RedisPassword = v
	}
}

// Validate chequea combinaciones inválidas que conviene cortar en el arranque.
func (c *Config) Validate() error {
	switch c.Settings.Driver {
	case "fs":
		// ok
	case "postgres":
		if strings.TrimSpace(c.Settings.DSN) == "" {
			return fmt.Errorf("config: settings.driver=postgres requiere settings.dsn")
		}
	default:
		return fmt.Errorf("config: settings.driver inválido %q (fs|postgres)", c.Settings.Driver)
	}
	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Rate.Window); err != nil {
		return fmt.Errorf("config: rate.window: %w", err)
	}
	return nil
}

// RateWindowDur retorna la ventana de rate limit parseada.
func (c *Config) RateWindowDur() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
