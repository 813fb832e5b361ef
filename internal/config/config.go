// Package config loads service settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/inventory"
	"gopkg.in/yaml.v3"
)

const EnvProduction = "production"

type Config struct {
	HTTPPort           string        `yaml:"http_port"`
	Environment        string        `yaml:"environment"`
	JWTSecret          string        `yaml:"jwt_secret"`
	StockPolicy        string        `yaml:"stock_policy"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`

	Mongo  MongoConfig  `yaml:"mongo"`
	Redis  RedisConfig  `yaml:"redis"`
	Logger LoggerConfig `yaml:"logger"`
	SMTP   SMTPConfig   `yaml:"smtp"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	Workers  int    `yaml:"workers"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func Default() *Config {
	return &Config{
		HTTPPort:           "5000",
		Environment:        "development",
		StockPolicy:        string(inventory.PolicyLenient),
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "storefront",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logger: LoggerConfig{
			Mode:     "development",
			Filename: "storefront.log",
		},
		SMTP: SMTPConfig{
			Port:    587,
			From:    "no-reply@storefront.local",
			Workers: 4,
		},
	}
}

// Load applies, in order, the defaults, the YAML file at path (when path is not
// empty) and the environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.StockPolicy = getEnv("STOCK_POLICY", cfg.StockPolicy)
	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DB_NAME", cfg.Mongo.Database)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Logger.Mode = getEnv("LOG_MODE", cfg.Logger.Mode)
	cfg.Logger.Filename = getEnv("LOG_FILE", cfg.Logger.Filename)
	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Username = getEnv("SMTP_USER", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTP.Port = port
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		cfg.RequestTimeout = d
	}
	if cfg.SMTP.Host != "" && os.Getenv("SMTP_HOST") != "" {
		cfg.SMTP.Enabled = true
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("http_port is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if _, err := inventory.ParsePolicy(c.StockPolicy); err != nil {
		errs = append(errs, fmt.Errorf("stock_policy: %w", err))
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo uri and database are required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.SMTP.Enabled && c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp host is required when smtp is enabled"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
