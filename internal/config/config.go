// Package config loads supervisor settings from configs/config.yml, the
// environment (SUPERVISOR_ prefix) and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SUPERVISOR"

// Config is the fully resolved supervisor configuration.
type Config struct {
	Port     string        `mapstructure:"port"`
	LogLevel string        `mapstructure:"log_level"`
	DB       DBConfig      `mapstructure:"db"`
	Server   ServerConfig  `mapstructure:"server"`
	Device   DeviceConfig  `mapstructure:"device"`
	Proxy    ProxyConfig   `mapstructure:"proxy"`
	Polling  PollingConfig `mapstructure:"polling"`
	Auth     AuthConfig    `mapstructure:"auth"`
	MQTT     MQTTConfig    `mapstructure:"mqtt"`
	CORS     CORSConfig    `mapstructure:"cors"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig.Origin is the proxy that served the operator page (port 8080 by
// default). It is the last-resort device base and the default proxy URL, so it
// must never point back at this supervisor.
type ServerConfig struct {
	Origin string `mapstructure:"origin"`
}

type DeviceConfig struct {
	DefaultBase    string        `mapstructure:"default_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ProxyConfig.URL defaults to Server.Origin when empty.
type ProxyConfig struct {
	URL string `mapstructure:"url"`
}

type PollingConfig struct {
	StatusInterval  time.Duration `mapstructure:"status_interval"`
	SensorsInterval time.Duration `mapstructure:"sensors_interval"`
}

// AuthConfig.JWTSecret empty disables token verification.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// MQTTConfig.Broker empty disables the publisher.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProxyURL returns the proxy base, falling back to the origin.
func (c Config) ProxyURL() string {
	if strings.TrimSpace(c.Proxy.URL) != "" {
		return c.Proxy.URL
	}
	return c.Server.Origin
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", "supervisor.db")
	v.SetDefault("server.origin", "http://localhost:8080")
	v.SetDefault("device.default_base", "")
	v.SetDefault("device.request_timeout", 10*time.Second)
	v.SetDefault("proxy.url", "")
	v.SetDefault("polling.status_interval", 10*time.Second)
	v.SetDefault("polling.sensors_interval", 5*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "traffic/supervisor/state")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load reads the config file at path. An empty path searches ./configs for
// config.yml; a missing file is not an error, defaults and env still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Polling.StatusInterval <= 0 {
		return fmt.Errorf("polling.status_interval must be positive, got %s", c.Polling.StatusInterval)
	}
	if c.Polling.SensorsInterval <= 0 {
		return fmt.Errorf("polling.sensors_interval must be positive, got %s", c.Polling.SensorsInterval)
	}
	if c.Device.RequestTimeout <= 0 {
		return fmt.Errorf("device.request_timeout must be positive, got %s", c.Device.RequestTimeout)
	}
	if c.pointsAtSelf(c.Server.Origin) {
		return fmt.Errorf("server.origin %q is this supervisor's own address; set it to the proxy", c.Server.Origin)
	}
	if c.pointsAtSelf(c.Proxy.URL) {
		return fmt.Errorf("proxy.url %q is this supervisor's own address", c.Proxy.URL)
	}
	return nil
}

// pointsAtSelf reports a loopback URL on the port this supervisor listens on.
func (c Config) pointsAtSelf(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	port := u.Port()
	if port == "" {
		port = map[string]string{"http": "80", "https": "443"}[strings.ToLower(u.Scheme)]
	}
	if port != strings.TrimPrefix(c.Port, ":") {
		return false
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return false
}
