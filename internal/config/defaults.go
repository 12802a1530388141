package config

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers default values for every configuration key.
func SetDefaults() {
	// Gateway
	viper.SetDefault("gateway.host", "127.0.0.1")
	viper.SetDefault("gateway.port", 8787)

	// Assistant service
	viper.SetDefault("assistant.base_url", "https://api.openai.com/v1")
	viper.SetDefault("assistant.timeout", 60*time.Second)
	viper.SetDefault("assistant.poll_interval", 750*time.Millisecond)
	viper.SetDefault("assistant.max_poll_interval", 3*time.Second)
	viper.SetDefault("assistant.turn_timeout", 5*time.Minute)

	// Tool runner
	viper.SetDefault("tool_runner.path_prefix", "/api/mentor")
	viper.SetDefault("tool_runner.timeout", 30*time.Second)

	// Retry policy for assistant-service calls
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.initial_delay", 800*time.Millisecond)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")
}
