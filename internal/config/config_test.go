package config

import (
	"os"
	"path/filepath"
	"testing"
)

func baseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Transcription: TranscriptionConfig{
			OpenAIAPIKey: "sk-test-key-1234567890",
		},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := baseConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if cfg.Server.StaticFilesDir != "www" {
		t.Errorf("static_files_dir = %q, want www", cfg.Server.StaticFilesDir)
	}
	if cfg.Transcription.OpenAIBaseURL != "https://api.openai.com" {
		t.Errorf("openai_api_base_url = %q", cfg.Transcription.OpenAIBaseURL)
	}
	if cfg.Transcription.TranscriptionPath != "/v1/audio/transcriptions" {
		t.Errorf("transcription_path = %q", cfg.Transcription.TranscriptionPath)
	}
	if cfg.Transcription.Model != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", cfg.Transcription.Model)
	}
	if cfg.Transcription.DefaultLanguage != "auto" {
		t.Errorf("default_language = %q, want auto", cfg.Transcription.DefaultLanguage)
	}
	if cfg.Transcription.MaxAudioSizeMB != 25 {
		t.Errorf("max_audio_size_mb = %d, want 25", cfg.Transcription.MaxAudioSizeMB)
	}
	if cfg.Transcription.MaxPromptLength != 1000 {
		t.Errorf("max_prompt_length = %d, want 1000", cfg.Transcription.MaxPromptLength)
	}
	if cfg.Transcription.TimeoutMs != 60000 {
		t.Errorf("timeout_ms = %d, want 60000", cfg.Transcription.TimeoutMs)
	}
	if cfg.Transcription.RetryMaxAttempts != 3 {
		t.Errorf("retry_max_attempts = %d, want 3", cfg.Transcription.RetryMaxAttempts)
	}
	if cfg.Transcription.RetryInitialBackoffMs != 1000 {
		t.Errorf("retry_initial_backoff_ms = %d, want 1000", cfg.Transcription.RetryInitialBackoffMs)
	}
	if cfg.Transcription.RetryBackoffMultiple != 2 {
		t.Errorf("retry_backoff_multiple = %d, want 2", cfg.Transcription.RetryBackoffMultiple)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "text" }},
		{"negative audio size", func(c *Config) { c.Transcription.MaxAudioSizeMB = -1 }},
		{"negative prompt length", func(c *Config) { c.Transcription.MaxPromptLength = -1 }},
		{"negative timeout", func(c *Config) { c.Transcription.TimeoutMs = -5 }},
		{"negative retries", func(c *Config) { c.Transcription.RetryMaxAttempts = -1 }},
		{"negative backoff", func(c *Config) { c.Transcription.RetryInitialBackoffMs = -100 }},
		{"negative multiplier", func(c *Config) { c.Transcription.RetryBackoffMultiple = -2 }},
		{"rate limit enabled without requests", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.WindowSeconds = 60
		}},
		{"rate limit enabled without window", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerWindow = 10
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate did not reject invalid config")
			}
		})
	}
}

func TestValidateTranscriptionAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-key-9876543210")

	cfg := baseConfig()
	cfg.Transcription.OpenAIAPIKey = ""

	if err := cfg.ValidateTranscription(); err != nil {
		t.Fatalf("ValidateTranscription returned error: %v", err)
	}
	if cfg.Transcription.OpenAIAPIKey != "sk-env-key-9876543210" {
		t.Errorf("api key = %q, want environment fallback", cfg.Transcription.OpenAIAPIKey)
	}
}

func TestValidateTranscriptionFileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-key-9876543210")

	cfg := baseConfig()

	if err := cfg.ValidateTranscription(); err != nil {
		t.Fatalf("ValidateTranscription returned error: %v", err)
	}
	if cfg.Transcription.OpenAIAPIKey != "sk-test-key-1234567890" {
		t.Errorf("api key = %q, want file value", cfg.Transcription.OpenAIAPIKey)
	}
}

func TestValidateTranscriptionTrimsBaseURL(t *testing.T) {
	cfg := baseConfig()
	cfg.Transcription.OpenAIBaseURL = "https://proxy.example.com/"

	if err := cfg.ValidateTranscription(); err != nil {
		t.Fatalf("ValidateTranscription returned error: %v", err)
	}
	if cfg.Transcription.OpenAIBaseURL != "https://proxy.example.com" {
		t.Errorf("base url = %q, want trailing slash removed", cfg.Transcription.OpenAIBaseURL)
	}
}

func TestMaxAudioSizeBytes(t *testing.T) {
	cfg := baseConfig()
	cfg.Transcription.MaxAudioSizeMB = 25

	if got := cfg.MaxAudioSizeBytes(); got != 25*1024*1024 {
		t.Errorf("MaxAudioSizeBytes() = %d, want %d", got, 25*1024*1024)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[server]
port = 9090
host = "0.0.0.0"
cors_allowed_origins = ["http://localhost:9090"]

[logging]
level = "debug"
format = "console"

[transcription]
model = "whisper-1"
max_audio_size_mb = 10

[rate_limit]
enabled = true
requests_per_window = 30
window_seconds = 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 1 || cfg.Server.CORSAllowedOrigins[0] != "http://localhost:9090" {
		t.Errorf("cors_allowed_origins = %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Transcription.MaxAudioSizeMB != 10 {
		t.Errorf("max_audio_size_mb = %d, want 10", cfg.Transcription.MaxAudioSizeMB)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerWindow != 30 {
		t.Errorf("rate_limit = %+v", cfg.RateLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load did not fail for a missing file")
	}
}

func TestLoadWithFallbackPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")

	content := `
[server]
port = 8081

[logging]
level = "info"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback returned error: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d, want 8081", cfg.Server.Port)
	}
}
