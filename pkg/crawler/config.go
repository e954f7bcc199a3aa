package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ctfhound/flagcrawl/internal/output"
	"github.com/ctfhound/flagcrawl/internal/transport"
)

// Config holds all crawler configuration.
type Config struct {
	// Target server
	Server string `json:"server" yaml:"server"`
	Port   int    `json:"port" yaml:"port"`

	// Login credentials
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// Flag quota that stops traversal
	Quota int `json:"quota" yaml:"quota"`

	// Application paths. LoginPath serves the login form; LandingPath is the
	// fixed redirect target submitted with the form; RootPath and LogoutPath
	// are pre-seeded into the explored set so the crawler never re-enters
	// the root or authenticates itself out.
	LoginPath   string `json:"login_path" yaml:"login_path"`
	LandingPath string `json:"landing_path" yaml:"landing_path"`
	RootPath    string `json:"root_path" yaml:"root_path"`
	LogoutPath  string `json:"logout_path" yaml:"logout_path"`

	// Connection parameters
	Transport transport.Config `json:"transport" yaml:"transport"`

	// Politeness limiter (0 = unlimited, preserving back-to-back requests)
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// 503 retry policy (0 retries = unbounded, per the server contract)
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// Output configuration
	Output output.Config `json:"output" yaml:"output"`

	// State persistence (empty = disabled)
	StatePath string `json:"state_path" yaml:"state_path"`

	// Optional User-Agent header
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Estimated URL count for the explored-set filter sizing
	EstimatedURLs int `json:"estimated_urls" yaml:"estimated_urls"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// RateLimitConfig holds politeness limiter settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// RetryConfig holds the 503 retry policy.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	Delay      time.Duration `json:"delay" yaml:"delay"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:          443,
		Quota:         5,
		LoginPath:     "/accounts/login/",
		LandingPath:   "/",
		RootPath:      "/",
		LogoutPath:    "/accounts/logout/",
		Transport:     transport.DefaultConfig(),
		EstimatedURLs: 10000,
		Output: output.Config{
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server hostname is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Quota < 1 {
		return fmt.Errorf("quota must be at least 1")
	}
	if c.LoginPath == "" {
		return fmt.Errorf("login path is required")
	}
	return nil
}
