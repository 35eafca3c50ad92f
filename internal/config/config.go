package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/ascod-toast-classifier/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// Option customizes a Manager before the configuration is loaded
type Option func(*Manager)

// WithConfigFile reads the given file instead of searching the default paths.
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.configFile = path
	}
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ascod-classifier/")
	}

	// ASCOD_CLASSIFIER_API_KEY, ASCOD_SERVER_PORT, ...
	v.SetEnvPrefix("ASCOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The credential is conventionally provided as GEMINI_API_KEY.
	if err := v.BindEnv("classifier.api_key", "ASCOD_CLASSIFIER_API_KEY", "GEMINI_API_KEY"); err != nil {
		return fmt.Errorf("error binding api key env: %w", err)
	}

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Classifier defaults
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("classifier.model", "gemini-2.0-flash")
	v.SetDefault("classifier.timeout", "60s")
	v.SetDefault("classifier.temperature", 0.2)
	v.SetDefault("classifier.top_k", 20)
	v.SetDefault("classifier.top_p", 0.8)
	v.SetDefault("classifier.max_output_tokens", 2048)
	v.SetDefault("classifier.json_response", true)
	v.SetDefault("classifier.rate_limit", 2)
	v.SetDefault("classifier.burst", 4)
	v.SetDefault("classifier.breaker.max_requests", 1)
	v.SetDefault("classifier.breaker.interval", "60s")
	v.SetDefault("classifier.breaker.timeout", "30s")
	v.SetDefault("classifier.breaker.min_requests", 5)
	v.SetDefault("classifier.breaker.failure_ratio", 0.6)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// MCP defaults
	v.SetDefault("mcp.server_name", "ascod-toast-classifier")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetClassifierConfig returns classifier configuration
func (m *Manager) GetClassifierConfig() *domain.ClassifierConfig {
	return &m.config.Classifier
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration. A missing API key is not an error:
// the service starts and reports the classifier as unavailable.
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}

	// Validate classifier configuration
	c := config.Classifier
	if c.BaseURL == "" {
		return fmt.Errorf("classifier base URL is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid classifier base URL: %s", c.BaseURL)
	}
	if c.Model == "" {
		return fmt.Errorf("classifier model is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("classifier timeout must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("classifier temperature must be between 0 and 2: %v", c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("classifier top_p must be between 0 and 1: %v", c.TopP)
	}
	if c.TopK < 0 {
		return fmt.Errorf("classifier top_k must not be negative: %d", c.TopK)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("classifier max_output_tokens must be positive: %d", c.MaxOutputTokens)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("classifier rate_limit must not be negative: %v", c.RateLimit)
	}
	if c.Breaker.FailureRatio < 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("classifier breaker failure_ratio must be between 0 and 1: %v", c.Breaker.FailureRatio)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// HasAPIKey reports whether a classifier credential is configured.
func (m *Manager) HasAPIKey() bool {
	return strings.TrimSpace(m.config.Classifier.APIKey) != ""
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
