package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Generator GeneratorConfig `yaml:"generator"`
	NATS      NATSConfig      `yaml:"nats"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig holds the store connection options. Host, user, password
// and database default to localhost, root, empty and roomTrackingDB.
type DatabaseConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SSLMode    string `yaml:"sslmode"`
	MaxConns   int    `yaml:"max_conns"`
	InitSchema bool   `yaml:"init_schema"`
}

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

type GeneratorConfig struct {
	MaxSleepUnits int           `yaml:"max_sleep_units"`
	SleepUnit     time.Duration `yaml:"sleep_unit"`
	// Iterations of 0 runs until the process is stopped.
	Iterations    int           `yaml:"iterations"`
	WriteAttempts int           `yaml:"write_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Seed          uint64        `yaml:"seed"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from an optional YAML file and applies environment
// variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Generator.MaxSleepUnits < 0 {
		return fmt.Errorf("generator.max_sleep_units must not be negative, got %d", c.Generator.MaxSleepUnits)
	}
	if c.Generator.Iterations < 0 {
		return fmt.Errorf("generator.iterations must not be negative, got %d", c.Generator.Iterations)
	}
	if c.Generator.WriteAttempts < 1 {
		return fmt.Errorf("generator.write_attempts must be at least 1, got %d", c.Generator.WriteAttempts)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "root"
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = "roomTrackingDB"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 4
	}
	if cfg.Generator.MaxSleepUnits == 0 {
		cfg.Generator.MaxSleepUnits = 10
	}
	if cfg.Generator.SleepUnit == 0 {
		cfg.Generator.SleepUnit = time.Second
	}
	if cfg.Generator.WriteAttempts == 0 {
		cfg.Generator.WriteAttempts = 1
	}
	if cfg.Generator.RetryInterval == 0 {
		cfg.Generator.RetryInterval = 3 * time.Second
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FACELOG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FACELOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FACELOG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v, ok := os.LookupEnv("FACELOG_DB_PASSWORD"); ok {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FACELOG_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("FACELOG_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FACELOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FACELOG_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FACELOG_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("FACELOG_GENERATOR_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generator.Iterations = n
		}
	}
	if v := os.Getenv("FACELOG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
