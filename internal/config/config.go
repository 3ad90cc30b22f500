package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Joomla    JoomlaConfig    `yaml:"joomla"`
	Redis     RedisConfig     `yaml:"redis"`
	Directory DirectoryConfig `yaml:"directory"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// JoomlaConfig holds the CMS API configuration
type JoomlaConfig struct {
	BaseURL        string `yaml:"base_url"`
	Component      string `yaml:"component"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c JoomlaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the snapshot cache configuration
type RedisConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Addr             string `yaml:"addr"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	SnapshotTTLHours int    `yaml:"snapshot_ttl_hours"`
}

// SnapshotTTL returns the snapshot TTL as a duration
func (c RedisConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLHours) * time.Hour
}

// DirectoryConfig holds list pipeline and refresh settings
type DirectoryConfig struct {
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds"`
	DefaultPageSize        int `yaml:"default_page_size"`
}

// RefreshInterval returns the refresh interval as a duration
func (c DirectoryConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Joomla.Component == "" {
		cfg.Joomla.Component = "com_bie_membersf"
	}
	if cfg.Joomla.TimeoutSeconds == 0 {
		cfg.Joomla.TimeoutSeconds = 30
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.SnapshotTTLHours == 0 {
		cfg.Redis.SnapshotTTLHours = 72
	}
	if cfg.Directory.RefreshIntervalSeconds == 0 {
		cfg.Directory.RefreshIntervalSeconds = 300
	}
	if cfg.Directory.DefaultPageSize == 0 {
		cfg.Directory.DefaultPageSize = 12
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars on the deployment host.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if baseURL := os.Getenv("JOOMLA_BASE_URL"); baseURL != "" {
		cfg.Joomla.BaseURL = baseURL
	}
	if component := os.Getenv("JOOMLA_COMPONENT"); component != "" {
		cfg.Joomla.Component = component
	}
	if token := os.Getenv("JOOMLA_API_TOKEN"); token != "" {
		cfg.Joomla.Token = token
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	return cfg, nil
}
