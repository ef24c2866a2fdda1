package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Scan      ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Limits    LimitsConfig    `yaml:"limits" mapstructure:"limits"`
	History   ListConfig      `yaml:"history" mapstructure:"history"`
	Cache     ListConfig      `yaml:"cache" mapstructure:"cache"`
	Alerts    ListConfig      `yaml:"alerts" mapstructure:"alerts"`
	Watchlist ListConfig      `yaml:"watchlist" mapstructure:"watchlist"`
	Settings  SettingsConfig  `yaml:"settings" mapstructure:"settings"`
	Links     LinksConfig     `yaml:"links" mapstructure:"links"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Network   NetworkConfig   `yaml:"network" mapstructure:"network"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the key-value substrate.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for the AI engine.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// APIConfig configures the REAiL backend client.
type APIConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ScanConfig switches individual analysis sources on or off.
type ScanConfig struct {
	UseAI     bool `yaml:"use_ai" mapstructure:"use_ai"`
	UseRemote bool `yaml:"use_remote" mapstructure:"use_remote"`
	UseMock   bool `yaml:"use_mock" mapstructure:"use_mock"`
}

// LimitsConfig holds the per-device action ceilings.
type LimitsConfig struct {
	ScansPerHour  int `yaml:"scans_per_hour" mapstructure:"scans_per_hour"`
	ReportsPerDay int `yaml:"reports_per_day" mapstructure:"reports_per_day"`
}

// ListConfig bounds a persisted list.
type ListConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// SettingsConfig configures the settings read cache.
type SettingsConfig struct {
	RefreshSecs int `yaml:"refresh_secs" mapstructure:"refresh_secs"`
}

// LinksConfig configures app and web links.
type LinksConfig struct {
	Scheme     string `yaml:"scheme" mapstructure:"scheme"`
	WebBaseURL string `yaml:"web_base_url" mapstructure:"web_base_url"`
}

// ServerConfig configures the local HTTP bridge.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// NetworkConfig configures the connectivity probe.
type NetworkConfig struct {
	ProbeURL     string `yaml:"probe_url" mapstructure:"probe_url"`
	IntervalSecs int    `yaml:"interval_secs" mapstructure:"interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "reail.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("api.base_url", "https://api.reail.app")
	v.SetDefault("api.timeout_secs", 15)
	v.SetDefault("api.requests_per_sec", 5)
	v.SetDefault("api.retries", 2)
	v.SetDefault("scan.use_ai", true)
	v.SetDefault("scan.use_remote", true)
	v.SetDefault("scan.use_mock", true)
	v.SetDefault("limits.scans_per_hour", 20)
	v.SetDefault("limits.reports_per_day", 5)
	v.SetDefault("history.max_entries", 200)
	v.SetDefault("cache.max_entries", 200)
	v.SetDefault("alerts.max_entries", 300)
	v.SetDefault("watchlist.max_entries", 300)
	v.SetDefault("settings.refresh_secs", 5)
	v.SetDefault("links.scheme", "reailscan")
	v.SetDefault("links.web_base_url", "https://reail.app")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("network.probe_url", "https://api.reail.app/health")
	v.SetDefault("network.interval_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the keys a mode depends on. Modes: "local" (any command
// touching the store), "ai" (the AI engine is required), "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	storeChecks := func() {
		switch c.Store.Driver {
		case "sqlite", "memory", "":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the postgres driver")
			}
		default:
			problems = append(problems, "store.driver must be sqlite, postgres or memory")
		}
		if c.API.TimeoutSecs <= 0 {
			problems = append(problems, "api.timeout_secs must be > 0")
		}
		if c.API.Retries < 0 {
			problems = append(problems, "api.retries must be >= 0")
		}
	}

	switch mode {
	case "local":
		storeChecks()
	case "ai":
		storeChecks()
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "serve":
		storeChecks()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
