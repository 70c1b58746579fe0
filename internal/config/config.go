package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Generator  GeneratorConfig  `yaml:"generator" mapstructure:"generator"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Guidelines GuidelinesConfig `yaml:"guidelines" mapstructure:"guidelines"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run/artifact persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CatalogConfig configures the product catalog source file.
type CatalogConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeneratorConfig configures the content generation stage.
type GeneratorConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"` // "gemini" or "anthropic"
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMin float64 `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	// CascadeInvalidation controls whether a force-refreshed cycle drops the
	// recommendation and summary cache entries along with the analysis entry.
	CascadeInvalidation bool `yaml:"cascade_invalidation" mapstructure:"cascade_invalidation"`
	ApplyTimeoutSecs    int  `yaml:"apply_timeout_secs" mapstructure:"apply_timeout_secs"`
}

// GuidelinesConfig points at the listing guidelines rules file.
type GuidelinesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LISTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "listing.db")
	v.SetDefault("catalog.path", "products.csv")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("generator.provider", "gemini")
	v.SetDefault("generator.timeout_secs", 120)
	v.SetDefault("generator.max_tokens", 4096)
	v.SetDefault("generator.requests_per_min", 30)
	v.SetDefault("generator.max_retries", 3)
	v.SetDefault("pipeline.cascade_invalidation", true)
	v.SetDefault("pipeline.apply_timeout_secs", 10)
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

// Validate checks that the configuration required for the given mode is
// present. Modes: "optimize" (CLI pipeline runs), "serve" (HTTP server).
func (c *Config) Validate(mode string) error {
	var missing []string

	checkCommon := func() {
		if c.Catalog.Path == "" {
			missing = append(missing, "catalog.path is required")
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
		switch c.Generator.Provider {
		case "gemini":
			if c.Gemini.Key == "" {
				missing = append(missing, "gemini.key is required")
			}
		case "anthropic":
			if c.Anthropic.Key == "" {
				missing = append(missing, "anthropic.key is required")
			}
		default:
			missing = append(missing, "generator.provider must be gemini or anthropic")
		}
		if c.Generator.TimeoutSecs <= 0 {
			missing = append(missing, "generator.timeout_secs must be > 0")
		}
		// The Gemini SDK takes an int32 token budget.
		if c.Generator.MaxTokens <= 0 || c.Generator.MaxTokens > math.MaxInt32 {
			missing = append(missing, "generator.max_tokens must be between 1 and 2147483647")
		}
	}

	switch mode {
	case "optimize":
		checkCommon()
	case "serve":
		checkCommon()
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
