// Package config loads and validates the mentord configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mentord/pkg/logger"
)

// Config is the root configuration structure.
type Config struct {
	Gateway    GatewayConfig    `mapstructure:"gateway" yaml:"gateway"`
	Assistant  AssistantConfig  `mapstructure:"assistant" yaml:"assistant"`
	ToolRunner ToolRunnerConfig `mapstructure:"tool_runner" yaml:"tool_runner"`
	Retry      RetryConfig      `mapstructure:"retry" yaml:"retry"`
	Log        logger.LogConfig `mapstructure:"log" yaml:"log"`
}

// GatewayConfig configures the inbound HTTP server.
type GatewayConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// AssistantConfig configures the conversational-assistant service client.
type AssistantConfig struct {
	BaseURL         string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	AssistantID     string        `mapstructure:"assistant_id" yaml:"assistant_id"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval" yaml:"max_poll_interval"`
	TurnTimeout     time.Duration `mapstructure:"turn_timeout" yaml:"turn_timeout"`
}

// ToolRunnerConfig configures the trade-analytics tool runner client.
type ToolRunnerConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	PathPrefix string        `mapstructure:"path_prefix" yaml:"path_prefix"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RetryConfig configures the retry policy applied to assistant-service calls.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
}

// ValidationError reports configuration fields that are missing or invalid.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: missing %s", strings.Join(e.Missing, ", "))
}

// DefaultConfigPath returns the default configuration file path (~/.mentord/config.yaml).
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mentord", "config.yaml"), nil
}

// Load reads configuration from the given file (optional), environment
// variables, and defaults, then validates it. Validation failures are
// returned as a *ValidationError rather than aborting the process.
func Load(path string) (*Config, error) {
	SetDefaults()

	viper.SetEnvPrefix("MENTORD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The original deployment configured these three through bare env vars.
	_ = viper.BindEnv("assistant.api_key", "MENTORD_ASSISTANT_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("assistant.assistant_id", "MENTORD_ASSISTANT_ASSISTANT_ID", "ASSISTANT_ID")
	_ = viper.BindEnv("tool_runner.base_url", "MENTORD_TOOL_RUNNER_BASE_URL", "TOOL_RUNNER_BASE_URL")

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ToolRunner.PathPrefix = NormalizePathPrefix(cfg.ToolRunner.PathPrefix)

	return &cfg, nil
}

// Validate checks that the required external-service settings are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Assistant.APIKey == "" {
		missing = append(missing, "assistant.api_key")
	}
	if c.Assistant.AssistantID == "" {
		missing = append(missing, "assistant.assistant_id")
	}
	if c.ToolRunner.BaseURL == "" {
		missing = append(missing, "tool_runner.base_url")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// NormalizePathPrefix strips trailing slashes and guarantees a leading slash.
func NormalizePathPrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// WriteDefault writes a starter configuration file to the given path,
// creating parent directories as needed. Existing files are left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	SetDefaults()
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("build default config: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
