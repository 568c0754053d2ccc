package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the API server needs
type Config struct {
	Port     string
	LogLevel string

	OnDemand  OnDemandConfig
	Joern     JoernConfig
	Session   SessionConfig
	Dispatch  DispatchConfig
	Telemetry TelemetryConfig
}

// OnDemandConfig configures the remote completion service
type OnDemandConfig struct {
	APIKey         string
	BaseURL        string
	EndpointID     string
	SessionID      string
	ExternalUserID string
	RoleEndpoints  map[string]string
	RequestTimeout time.Duration
}

// JoernConfig configures the code-property-graph query server
type JoernConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	QueryTimeout time.Duration
}

// SessionConfig bounds the in-memory scan session store
type SessionConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// DispatchConfig controls how multi-role stages are executed
type DispatchConfig struct {
	Parallel bool
}

// TelemetryConfig selects trace exporters
type TelemetryConfig struct {
	TraceStdout bool
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")

	v.SetDefault("ondemand.api_key", "")
	v.SetDefault("ondemand.api_url", "https://api.on-demand.io/chat/v1/sessions")
	v.SetDefault("ondemand.endpoint_id", "predefined-openai-gpt4o")
	v.SetDefault("ondemand.session_id", "")
	v.SetDefault("ondemand.external_user_id", "graphide")
	v.SetDefault("ondemand.role_endpoints", map[string]string{})
	v.SetDefault("ondemand.request_timeout", 60*time.Second)

	v.SetDefault("joern.host", "localhost")
	v.SetDefault("joern.port", 8080)
	v.SetDefault("joern.username", "")
	v.SetDefault("joern.password", "")
	v.SetDefault("joern.query_timeout", 120*time.Second)

	v.SetDefault("session.max_entries", 10000)
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("dispatch.parallel", true)
	v.SetDefault("telemetry.trace_stdout", true)
}

// New returns a viper instance with defaults and environment binding.
// Keys map to environment variables by upper-casing and replacing dots,
// so ondemand.api_key is read from ONDEMAND_API_KEY.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes v into a Config
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		OnDemand: OnDemandConfig{
			APIKey:         v.GetString("ondemand.api_key"),
			BaseURL:        strings.TrimRight(v.GetString("ondemand.api_url"), "/"),
			EndpointID:     v.GetString("ondemand.endpoint_id"),
			SessionID:      v.GetString("ondemand.session_id"),
			ExternalUserID: v.GetString("ondemand.external_user_id"),
			RoleEndpoints:  v.GetStringMapString("ondemand.role_endpoints"),
			RequestTimeout: v.GetDuration("ondemand.request_timeout"),
		},
		Joern: JoernConfig{
			Host:         v.GetString("joern.host"),
			Port:         v.GetInt("joern.port"),
			Username:     v.GetString("joern.username"),
			Password:     v.GetString("joern.password"),
			QueryTimeout: v.GetDuration("joern.query_timeout"),
		},
		Session: SessionConfig{
			MaxEntries: v.GetInt("session.max_entries"),
			TTL:        v.GetDuration("session.ttl"),
		},
		Dispatch: DispatchConfig{
			Parallel: v.GetBool("dispatch.parallel"),
		},
		Telemetry: TelemetryConfig{
			TraceStdout: v.GetBool("telemetry.trace_stdout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.OnDemand.BaseURL == "" {
		return fmt.Errorf("ondemand.api_url must not be empty")
	}
	if c.OnDemand.RequestTimeout <= 0 {
		return fmt.Errorf("ondemand.request_timeout must be positive, got %s", c.OnDemand.RequestTimeout)
	}
	if c.Joern.Port <= 0 || c.Joern.Port > 65535 {
		return fmt.Errorf("joern.port out of range: %d", c.Joern.Port)
	}
	if c.Joern.QueryTimeout <= 0 {
		return fmt.Errorf("joern.query_timeout must be positive, got %s", c.Joern.QueryTimeout)
	}
	if c.Session.MaxEntries <= 0 {
		return fmt.Errorf("session.max_entries must be positive, got %d", c.Session.MaxEntries)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// JoernAddress returns host:port of the query server
func (c *Config) JoernAddress() string {
	return fmt.Sprintf("%s:%d", c.Joern.Host, c.Joern.Port)
}
