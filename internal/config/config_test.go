package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsWhenKeysMissing(t *testing.T) {
	cfg, err := Load(writeConfig(t, "port: \"9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Polling.StatusInterval)
	assert.Equal(t, 5*time.Second, cfg.Polling.SensorsInterval)
	assert.Equal(t, 10*time.Second, cfg.Device.RequestTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.Server.Origin)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_ReadsNestedValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
device:
  default_base: "http://192.168.4.1"
  request_timeout: 3s
polling:
  status_interval: 2s
  sensors_interval: 1s
proxy:
  url: "http://127.0.0.1:8080"
`))
	require.NoError(t, err)

	assert.Equal(t, "http://192.168.4.1", cfg.Device.DefaultBase)
	assert.Equal(t, 3*time.Second, cfg.Device.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Polling.StatusInterval)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ProxyURL())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SUPERVISOR_DEVICE_DEFAULT_BASE", "http://10.0.0.9")
	cfg, err := Load(writeConfig(t, "device:\n  default_base: \"http://192.168.4.1\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.9", cfg.Device.DefaultBase)
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	_, err := Load(writeConfig(t, "polling:\n  status_interval: 0s\n"))
	assert.Error(t, err)
}

func TestProxyURL_FallsBackToOrigin(t *testing.T) {
	cfg := Config{Server: ServerConfig{Origin: "http://localhost:8080"}}
	assert.Equal(t, "http://localhost:8080", cfg.ProxyURL())
}

func TestLoad_DefaultsDoNotLoopBack(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.ProxyURL())
}

func TestLoad_RejectsOriginPointingAtSelf(t *testing.T) {
	_, err := Load(writeConfig(t, "port: \"8090\"\nserver:\n  origin: \"http://127.0.0.1:8090\"\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "port: \"8090\"\nproxy:\n  url: \"http://localhost:8090/\"\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "port: \"8090\"\nserver:\n  origin: \"http://192.168.1.20:8090\"\n"))
	assert.NoError(t, err, "a remote host on the same port is a different machine")
}
