package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server        ServerConfig        `toml:"server"`        // HTTP server settings
	Logging       LoggingConfig       `toml:"logging"`       // Application logging settings
	Transcription TranscriptionConfig `toml:"transcription"` // Audio transcription settings
	RateLimit     RateLimitConfig     `toml:"rate_limit"`    // Request rate limiting settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve the recorder UI from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// TranscriptionConfig contains settings for the transcription service
type TranscriptionConfig struct {
	// OpenAI API settings
	OpenAIAPIKey      string `toml:"openai_api_key"`      // OpenAI API key; falls back to the OPENAI_API_KEY environment variable
	OpenAIBaseURL     string `toml:"openai_api_base_url"` // Optional OpenAI base URL (e.g., for proxies). Defaults to https://api.openai.com
	TranscriptionPath string `toml:"transcription_path"`  // API path for audio transcription. Defaults to /v1/audio/transcriptions
	Model             string `toml:"model"`               // Transcription model to use (e.g., "whisper-1")
	DefaultLanguage   string `toml:"default_language"`    // Language assumed when the caller does not specify one ("auto" = let the model detect)

	// Upload limits
	MaxAudioSizeMB  int `toml:"max_audio_size_mb"` // Maximum accepted audio upload size in megabytes
	MaxPromptLength int `toml:"max_prompt_length"` // Maximum accepted context prompt length in characters

	// HTTP timeout and retry settings
	TimeoutMs             int `toml:"timeout_ms"`               // Per-attempt HTTP timeout for upstream requests in milliseconds
	RetryMaxAttempts      int `toml:"retry_max_attempts"`       // Maximum number of upstream call attempts
	RetryInitialBackoffMs int `toml:"retry_initial_backoff_ms"` // Backoff before the first retry in milliseconds
	RetryBackoffMultiple  int `toml:"retry_backoff_multiple"`   // Backoff multiplier applied per retry
}

// RateLimitConfig contains request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `toml:"enabled"`             // Enable or disable rate limiting on the transcribe endpoint
	RequestsPerWindow int  `toml:"requests_per_window"` // Maximum requests per client IP per window
	WindowSeconds     int  `toml:"window_seconds"`      // Window length in seconds
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and applies defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Set default static files directory if not specified
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate transcription config
	if err := c.ValidateTranscription(); err != nil {
		return err
	}

	// Validate rate limit config
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerWindow <= 0 {
			return fmt.Errorf("rate limit requests_per_window must be positive: %d", c.RateLimit.RequestsPerWindow)
		}
		if c.RateLimit.WindowSeconds <= 0 {
			return fmt.Errorf("rate limit window_seconds must be positive: %d", c.RateLimit.WindowSeconds)
		}
	}

	return nil
}

// ValidateTranscription validates the transcription configuration and applies
// defaults. The API key may come from the environment instead of the file.
func (c *Config) ValidateTranscription() error {
	if c.Transcription.OpenAIAPIKey == "" {
		c.Transcription.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Transcription.OpenAIAPIKey == "" {
		fmt.Printf("WARN: No OpenAI API key provided - transcription requests will fail\n")
	}

	if c.Transcription.OpenAIBaseURL == "" {
		c.Transcription.OpenAIBaseURL = "https://api.openai.com"
	}
	c.Transcription.OpenAIBaseURL = strings.TrimRight(c.Transcription.OpenAIBaseURL, "/")

	if c.Transcription.TranscriptionPath == "" {
		c.Transcription.TranscriptionPath = "/v1/audio/transcriptions"
	}

	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-1"
	}

	if c.Transcription.DefaultLanguage == "" {
		c.Transcription.DefaultLanguage = "auto"
	}

	if c.Transcription.MaxAudioSizeMB == 0 {
		c.Transcription.MaxAudioSizeMB = 25
	}
	if c.Transcription.MaxAudioSizeMB < 0 {
		return fmt.Errorf("invalid max_audio_size_mb: %d (must be positive)", c.Transcription.MaxAudioSizeMB)
	}

	if c.Transcription.MaxPromptLength == 0 {
		c.Transcription.MaxPromptLength = 1000
	}
	if c.Transcription.MaxPromptLength < 0 {
		return fmt.Errorf("invalid max_prompt_length: %d (must be positive)", c.Transcription.MaxPromptLength)
	}

	if c.Transcription.TimeoutMs == 0 {
		c.Transcription.TimeoutMs = 60000
	}
	if c.Transcription.TimeoutMs < 0 {
		return fmt.Errorf("invalid timeout_ms: %d (must be positive)", c.Transcription.TimeoutMs)
	}

	if c.Transcription.RetryMaxAttempts == 0 {
		c.Transcription.RetryMaxAttempts = 3
	}
	if c.Transcription.RetryMaxAttempts < 0 {
		return fmt.Errorf("invalid retry_max_attempts: %d (must be positive)", c.Transcription.RetryMaxAttempts)
	}

	if c.Transcription.RetryInitialBackoffMs == 0 {
		c.Transcription.RetryInitialBackoffMs = 1000
	}
	if c.Transcription.RetryInitialBackoffMs < 0 {
		return fmt.Errorf("invalid retry_initial_backoff_ms: %d (must be positive)", c.Transcription.RetryInitialBackoffMs)
	}

	if c.Transcription.RetryBackoffMultiple == 0 {
		c.Transcription.RetryBackoffMultiple = 2
	}
	if c.Transcription.RetryBackoffMultiple < 0 {
		return fmt.Errorf("invalid retry_backoff_multiple: %d (must be positive)", c.Transcription.RetryBackoffMultiple)
	}

	return nil
}

// MaxAudioSizeBytes returns the configured upload ceiling in bytes.
func (c *Config) MaxAudioSizeBytes() int64 {
	return int64(c.Transcription.MaxAudioSizeMB) * 1024 * 1024
}
