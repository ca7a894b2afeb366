package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCacheTTL        = 30 * time.Second
	DefaultWindowMonths    = 6
	DefaultPollInterval    = 45 * time.Second
	DefaultStaleAfter      = 60 * time.Second
	DefaultVerifyRetries   = 3
	DefaultVerifyBaseDelay = 200 * time.Millisecond

	configBaseName = "bandcal_config"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL     string        `yaml:"databaseURL" validate:"required"`
	RedisAddr       string        `yaml:"redisAddr,omitempty" validate:"omitempty,hostname_port"`
	CacheTTL        time.Duration `yaml:"cacheTTL,omitempty" validate:"min=0"`
	WindowMonths    int           `yaml:"windowMonths,omitempty" validate:"min=1,max=24"`
	ScheduleRRule   string        `yaml:"scheduleRRule,omitempty"`
	PollInterval    time.Duration `yaml:"pollInterval,omitempty" validate:"min=1s"`
	StaleAfter      time.Duration `yaml:"staleAfter,omitempty" validate:"min=0"`
	VerifyRetries   *int          `yaml:"verifyRetries,omitempty" validate:"omitempty,min=0,max=10"`
	VerifyBaseDelay time.Duration `yaml:"verifyBaseDelay,omitempty" validate:"min=0"`
	Timezone        string        `yaml:"timezone,omitempty"`
	MetricsAddr     string        `yaml:"metricsAddr,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from bandcal_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads bandcal_config.<env>.yaml, or bandcal_config.yaml when env is empty
func LoadWithEnv(env string) (*Config, error) {
	name := configBaseName + ".yaml"
	if env != "" {
		name = fmt.Sprintf("%s.%s.yaml", configBaseName, env)
	}

	configPath, err := findConfigFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset optional field
func (c *Config) ApplyDefaults() {
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.WindowMonths == 0 {
		c.WindowMonths = DefaultWindowMonths
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.VerifyRetries == nil {
		retries := DefaultVerifyRetries
		c.VerifyRetries = &retries
	}
	if c.VerifyBaseDelay == 0 {
		c.VerifyBaseDelay = DefaultVerifyBaseDelay
	}
}

// Validate validates the configuration struct, the rrule syntax and the timezone
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.ScheduleRRule != "" {
		if _, err := rrule.StrToROption(cfg.ScheduleRRule); err != nil {
			return fmt.Errorf("invalid rrule in scheduleRRule: %w", err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}

	return nil
}

// Location returns the configured timezone, or time.Local when none is set
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Retries returns the verification retry budget
func (c *Config) Retries() int {
	if c.VerifyRetries == nil {
		return DefaultVerifyRetries
	}
	return *c.VerifyRetries
}

// findConfigFile searches for name in current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
