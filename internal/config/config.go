// Package config loads application configuration from a YAML file and the
// RESOLVER_* environment, and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Router     RouterConfig     `yaml:"router" mapstructure:"router"`
	Strategy   StrategyConfig   `yaml:"strategy" mapstructure:"strategy"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the discovery cache backend.
type CacheConfig struct {
	// Driver is "sqlite", "postgres", or "off".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// GeminiConfig holds Google GenAI settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings for the agent provider.
type AnthropicConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxToolIterations int    `yaml:"max_tool_iterations" mapstructure:"max_tool_iterations"`
}

// RouterConfig configures provider selection.
type RouterConfig struct {
	TimeoutSecs   int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	AllowFallback bool `yaml:"allow_fallback" mapstructure:"allow_fallback"`
}

// StrategyConfig points at the composite strategy partition file.
type StrategyConfig struct {
	// File is an optional YAML strategy override; empty uses built-ins.
	File            string `yaml:"file" mapstructure:"file"`
	VerifyTimeoutMS int    `yaml:"verify_timeout_ms" mapstructure:"verify_timeout_ms"`
	SettleDelayMS   int    `yaml:"settle_delay_ms" mapstructure:"settle_delay_ms"`
}

// BatchConfig configures batch resolution.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the fields a run mode requires. Modes: "resolve" needs
// the backend keys, "serve" additionally needs a usable port.
func (c *Config) Validate(mode string) error {
	var missing []string

	check := func() {
		if c.Gemini.Key == "" {
			missing = append(missing, "gemini.key is required")
		}
		if c.Firecrawl.Key == "" {
			missing = append(missing, "firecrawl.key is required")
		}
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 50 {
			missing = append(missing, "batch.max_concurrent must be between 1 and 50")
		}
		if c.Cache.Driver == "postgres" && c.Cache.DatabaseURL == "" {
			missing = append(missing, "cache.database_url is required for the postgres driver")
		}
	}

	switch mode {
	case "resolve":
		check()
	case "serve":
		check()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "resolver-cache.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.max_tool_iterations", 5)
	v.SetDefault("router.timeout_secs", 120)
	v.SetDefault("router.allow_fallback", true)
	v.SetDefault("strategy.verify_timeout_ms", 25000)
	v.SetDefault("strategy.settle_delay_ms", 0)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
