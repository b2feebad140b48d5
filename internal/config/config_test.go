package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv aísla el test de las variables del entorno del desarrollador.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "SERVER_ADDR", "CORS_ALLOWED_ORIGIN", "METRICS_ENABLED",
		"EMAIL_ADDRESS", "EMAIL_PASSWORD", "SMTP_HOST", "SMTP_PORT", "SMTP_LOCAL_NAME",
		"SMTP_SEND_DELAY", "SMTP_TIMEOUT", "SMTP_INSECURE_SKIP_VERIFY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, DefaultServerAddr, c.Server.Addr)
	assert.Equal(t, DefaultAllowedOrigin, c.Server.CORSAllowedOrigin)
	assert.Equal(t, DefaultSMTPHost, c.SMTP.Host)
	assert.Equal(t, DefaultSMTPPort, c.SMTP.Port)
	assert.Equal(t, DefaultSendDelay, c.SMTP.SendDelay)
	assert.Zero(t, c.SMTP.Timeout, "0 keeps the SMTP client's own timeouts")
	assert.False(t, c.HasCredentials(), "missing credentials are not a load error")
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
smtp:
  host: smtp.example.com
  port: 2525
  username: yaml@x.com
  send_delay: 250ms
`), 0o600))

	t.Setenv("EMAIL_ADDRESS", "env@x.com")
	t.Setenv("EMAIL_PASSWORD", "s3cret")
	t.Setenv("SMTP_PORT", "465")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "smtp.example.com", c.SMTP.Host)
	assert.Equal(t, 465, c.SMTP.Port)
	assert.Equal(t, "env@x.com", c.SMTP.Username)
	assert.Equal(t, 250*time.Millisecond, c.SMTP.SendDelay)
	assert.True(t, c.HasCredentials())
}

func TestLoadRejectsBadEnv(t *testing.T) {
	cases := map[string]string{
		"SMTP_PORT":       "abc",
		"SMTP_SEND_DELAY": "soon",
		"SMTP_TIMEOUT":    "-",
		"METRICS_ENABLED": "maybe",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	t.Setenv("SMTP_PORT", "70000")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_SEND_DELAY", "-1s")
	_, err = Load("")
	assert.Error(t, err)
}

func TestZeroDelayFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_SEND_DELAY", "0s")

	c, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, c.SMTP.SendDelay)
}

func TestZeroDelayFromYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
smtp:
  send_delay: 0s
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, c.SMTP.SendDelay)
}

func TestYAMLWithoutDelayKeepsDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
smtp:
  host: smtp.example.com
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSendDelay, c.SMTP.SendDelay)
}

func TestProdNeverSkipsTLSVerify(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SMTP_INSECURE_SKIP_VERIFY", "true")

	c, err := Load("")
	require.NoError(t, err)
	assert.False(t, c.SMTP.InsecureSkipVerify)
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("smtp: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
