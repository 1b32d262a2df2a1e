// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Observer ObserverConfig `mapstructure:"observer" yaml:"observer"`
	Panel    PanelConfig    `mapstructure:"panel" yaml:"panel"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig tunes the orchestrator's timing and stuck detection.
// The settle delays are deliberate debounces, not correctness requirements.
type EngineConfig struct {
	ClickSettleDelay   time.Duration `mapstructure:"click_settle_delay" yaml:"click_settle_delay"`
	InputSettleDelay   time.Duration `mapstructure:"input_settle_delay" yaml:"input_settle_delay"`
	NavSettleDelay     time.Duration `mapstructure:"nav_settle_delay" yaml:"nav_settle_delay"`
	SnapshotRetryDelay time.Duration `mapstructure:"snapshot_retry_delay" yaml:"snapshot_retry_delay"`
	StuckWindow        int           `mapstructure:"stuck_window" yaml:"stuck_window"`
}

// LLMConfig configures the optional language model planner. The API key is
// bound from the environment and is never written to the config file.
type LLMConfig struct {
	Provider   string        `mapstructure:"provider" yaml:"provider"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey     string        `mapstructure:"api_key" yaml:"-"`
	Model      string        `mapstructure:"model" yaml:"model"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens  int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RatePerMin int           `mapstructure:"rate_per_min" yaml:"rate_per_min"`
}

// Schema converts the file/env config into the engine's credential bundle.
func (c LLMConfig) Schema() schemas.LLMConfig {
	return schemas.LLMConfig{
		Provider: schemas.LLMProvider(c.Provider),
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Model:    c.Model,
	}
}

// ObserverConfig holds settings for the chromedp page observer.
type ObserverConfig struct {
	// RemoteURL attaches to an already running Chrome devtools endpoint
	// (ws://...). Empty means launch a local headless instance.
	RemoteURL   string        `mapstructure:"remote_url" yaml:"remote_url"`
	Headless    bool          `mapstructure:"headless" yaml:"headless"`
	ExtractWait time.Duration `mapstructure:"extract_wait" yaml:"extract_wait"`
	MaxElements int           `mapstructure:"max_elements" yaml:"max_elements"`
}

// PanelConfig configures the websocket panel server.
type PanelConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// StoreConfig points at the durable state database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "navai")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.click_settle_delay", "1200ms")
	v.SetDefault("engine.input_settle_delay", "400ms")
	v.SetDefault("engine.nav_settle_delay", "800ms")
	v.SetDefault("engine.snapshot_retry_delay", "500ms")
	v.SetDefault("engine.stuck_window", 3)

	// -- LLM --
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", "15s")
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.rate_per_min", 20)

	// -- Observer --
	v.SetDefault("observer.headless", true)
	v.SetDefault("observer.extract_wait", "250ms")
	v.SetDefault("observer.max_elements", 120)

	// -- Panel --
	v.SetDefault("panel.listen_addr", "127.0.0.1:8931")

	// -- Store --
	v.SetDefault("store.path", "navai.db")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive data comes in via env only.
	v.BindEnv("llm.api_key", "NAVAI_LLM_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig returns a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Engine.StuckWindow <= 0 {
		return fmt.Errorf("engine.stuck_window must be a positive integer")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be a positive duration")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be a positive integer")
	}
	if c.Observer.MaxElements <= 0 {
		return fmt.Errorf("observer.max_elements must be a positive integer")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is a required configuration field")
	}
	return nil
}
