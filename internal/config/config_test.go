package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_ID", "asst_test")
	t.Setenv("TOOL_RUNNER_BASE_URL", "http://localhost:3000")
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gateway.Host != "127.0.0.1" || cfg.Gateway.Port != 8787 {
		t.Errorf("unexpected gateway defaults: %+v", cfg.Gateway)
	}
	if cfg.Assistant.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("unexpected assistant base url: %s", cfg.Assistant.BaseURL)
	}
	if cfg.Assistant.PollInterval != 750*time.Millisecond {
		t.Errorf("unexpected poll interval: %s", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.MaxPollInterval != 3*time.Second {
		t.Errorf("unexpected max poll interval: %s", cfg.Assistant.MaxPollInterval)
	}
	if cfg.Assistant.TurnTimeout != 5*time.Minute {
		t.Errorf("unexpected turn timeout: %s", cfg.Assistant.TurnTimeout)
	}
	if cfg.ToolRunner.PathPrefix != "/api/mentor" {
		t.Errorf("unexpected path prefix: %s", cfg.ToolRunner.PathPrefix)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.InitialDelay != 800*time.Millisecond {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected log level: %s", cfg.Log.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("MENTORD_GATEWAY_PORT", "9090")
	t.Setenv("MENTORD_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Gateway.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Log.Level)
	}
	if cfg.Assistant.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", cfg.Assistant.APIKey)
	}
	if cfg.ToolRunner.BaseURL != "http://localhost:3000" {
		t.Errorf("expected tool runner url from env, got %q", cfg.ToolRunner.BaseURL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `gateway:
  host: 0.0.0.0
  port: 8080
tool_runner:
  path_prefix: /tools/
assistant:
  poll_interval: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Host != "0.0.0.0" || cfg.Gateway.Port != 8080 {
		t.Errorf("unexpected gateway config: %+v", cfg.Gateway)
	}
	if cfg.ToolRunner.PathPrefix != "/tools" {
		t.Errorf("expected normalized prefix /tools, got %s", cfg.ToolRunner.PathPrefix)
	}
	if cfg.Assistant.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %s", cfg.Assistant.PollInterval)
	}
}

func TestLoadMissingRequiredSettings(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ASSISTANT_ID", "")
	t.Setenv("TOOL_RUNNER_BASE_URL", "")
	t.Setenv("MENTORD_ASSISTANT_API_KEY", "")
	t.Setenv("MENTORD_ASSISTANT_ASSISTANT_ID", "")
	t.Setenv("MENTORD_TOOL_RUNNER_BASE_URL", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	want := []string{"assistant.api_key", "assistant.assistant_id", "tool_runner.base_url"}
	if len(verr.Missing) != len(want) {
		t.Fatalf("expected %v missing, got %v", want, verr.Missing)
	}
	for i, field := range want {
		if verr.Missing[i] != field {
			t.Errorf("expected missing[%d] = %s, got %s", i, field, verr.Missing[i])
		}
	}
}

func TestNormalizePathPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/mentor", "/api/mentor"},
		{"/api/mentor/", "/api/mentor"},
		{"api/mentor", "/api/mentor"},
		{"api/mentor///", "/api/mentor"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := NormalizePathPrefix(tt.in); got != tt.want {
			t.Errorf("NormalizePathPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	viper.Reset()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty config file")
	}

	if err := WriteDefault(path); err == nil {
		t.Error("expected error for existing file")
	}
}
