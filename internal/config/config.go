package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults del relay de referencia (Outlook / Microsoft 365).
const (
	DefaultSMTPHost      = "smtp-mail.outlook.com"
	DefaultSMTPPort      = 587
	DefaultSendDelay     = time.Second
	DefaultServerAddr    = ":8000"
	DefaultAllowedOrigin = "http://localhost:3000"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// Origen del front-end autorizado por CORS (uno solo).
		CORSAllowedOrigin string        `yaml:"cors_allowed_origin"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		// WriteTimeout debe cubrir N destinatarios * send_delay; 0 = sin límite.
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		MetricsEnabled bool          `yaml:"metrics_enabled"`
	} `yaml:"server"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		// Username es también la dirección remitente (EMAIL_ADDRESS).
		Username string `yaml:"username"`
		// Password nunca se loguea (EMAIL_PASSWORD).
		Password  string        `yaml:"password"`
		LocalName string        `yaml:"local_name"` // nombre para EHLO, default "localhost"
		SendDelay time.Duration `yaml:"send_delay"` // pausa entre destinatarios
		Timeout   time.Duration `yaml:"timeout"`    // dial + comandos SMTP; 0 = defaults del transporte
		// InsecureSkipVerify: sólo dev/tests contra relays con certificado propio.
		InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`
}

// Load lee el YAML en path (opcional: "" o archivo inexistente => sólo defaults),
// aplica defaults, overrides por env y valida.
// Las credenciales faltantes NO son error acá: los endpoints las reportan por request.
func Load(path string) (*Config, error) {
	var c Config
	// send_delay: 0s en el YAML es válido (sin pausa), así que el default va antes de parsear.
	c.SMTP.SendDelay = DefaultSendDelay

	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", p, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		default:
			return nil, fmt.Errorf("config: read %s: %w", p, err)
		}
	}

	c.applyDefaults()
	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.CORSAllowedOrigin == "" {
		c.Server.CORSAllowedOrigin = DefaultAllowedOrigin
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = DefaultSMTPHost
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.SMTP.LocalName == "" {
		c.SMTP.LocalName = "localhost"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// applyEnvOverrides pisa el YAML con variables de entorno.
// Valores numéricos/duraciones inválidos son error (no se ignoran en silencio).
func (c *Config) applyEnvOverrides() error {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("CORS_ALLOWED_ORIGIN"); ok {
		c.Server.CORSAllowedOrigin = v
	}
	if v, ok := getEnvStr("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: METRICS_ENABLED: %w", err)
		}
		c.Server.MetricsEnabled = b
	}

	// SMTP (mismos nombres de env que el despliegue actual en producción)
	if v, ok := getEnvStr("EMAIL_ADDRESS"); ok {
		c.SMTP.Username = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("EMAIL_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("SMTP_PORT"); ok {
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SMTP_PORT: %w", err)
		}
		c.SMTP.Port = p
	}
	if v, ok := getEnvStr("SMTP_LOCAL_NAME"); ok {
		c.SMTP.LocalName = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("SMTP_SEND_DELAY"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SMTP_SEND_DELAY: %w", err)
		}
		c.SMTP.SendDelay = d
	}
	if v, ok := getEnvStr("SMTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SMTP_TIMEOUT: %w", err)
		}
		c.SMTP.Timeout = d
	}
	if v, ok := getEnvStr("SMTP_INSECURE_SKIP_VERIFY"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SMTP_INSECURE_SKIP_VERIFY: %w", err)
		}
		c.SMTP.InsecureSkipVerify = b
	}

	// Guardia dura: en prod nunca se saltea la verificación TLS.
	if c.App.Env == "prod" {
		c.SMTP.InsecureSkipVerify = false
	}
	return nil
}

// Validate chequea rangos. No exige credenciales.
func (c *Config) Validate() error {
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("config: smtp.port fuera de rango: %d", c.SMTP.Port)
	}
	if c.SMTP.SendDelay < 0 {
		return fmt.Errorf("config: smtp.send_delay negativo: %s", c.SMTP.SendDelay)
	}
	if c.SMTP.Timeout < 0 {
		return fmt.Errorf("config: smtp.timeout negativo: %s", c.SMTP.Timeout)
	}
	if strings.TrimSpace(c.Server.CORSAllowedOrigin) == "" {
		return errors.New("config: server.cors_allowed_origin vacío")
	}
	return nil
}

// HasCredentials indica si remitente y password están presentes.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.SMTP.Username) != "" && c.SMTP.Password != ""
}
