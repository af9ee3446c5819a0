// Package config loads service configuration from YAML, a .env file and
// CENSUS_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gartstein/census/internal/census/db"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "internal/census/config/config.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Shop     ShopConfig     `yaml:"shop"`
	LogLevel string         `yaml:"log_level"`
	// BusinessDate pins the clock (YYYY-MM-DD). Empty means the system date.
	BusinessDate string `yaml:"business_date"`
}

type ServerConfig struct {
	GRPCPort int `yaml:"grpc_port"`
	HTTPPort int `yaml:"http_port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	InboundTopic  string   `yaml:"inbound_topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ShopConfig struct {
	RetroactiveCoverageTerminationMaximumMonths int `yaml:"retroactive_coverage_termination_maximum_months"`
	EmploymentTerminationReportingWindowDays    int `yaml:"employment_termination_reporting_window_days"`
	CobraEnrollmentPeriodMonths                 int `yaml:"cobra_enrollment_period_months"`
	NewHireEnrollmentWindowDays                 int `yaml:"new_hire_enrollment_window_days"`
}

// Load reads the YAML file at CONFIG_PATH (or DefaultPath), then applies
// overrides from .env and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile reads path and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse decodes data over the defaults and applies environment overrides.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for keys the file omits.
func Default() *Config {
	s := eligibility.DefaultSettings()
	return &Config{
		Server:   ServerConfig{GRPCPort: 50051, HTTPPort: 8080},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Kafka: KafkaConfig{
			Topic:         "census.employees",
			InboundTopic:  "census.coverage",
			ConsumerGroup: "census",
		},
		Redis:    RedisConfig{LockTTL: 10 * time.Minute},
		LogLevel: "info",
		Shop: ShopConfig{
			RetroactiveCoverageTerminationMaximumMonths: s.RetroactiveCoverageTerminationMaximumMonths,
			EmploymentTerminationReportingWindowDays:    s.EmploymentTerminationReportingWindowDays,
			CobraEnrollmentPeriodMonths:                 s.CobraEnrollmentPeriodMonths,
			NewHireEnrollmentWindowDays:                 s.NewHireEnrollmentWindowDays,
		},
	}
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("CENSUS_DB_HOST", &c.Database.Host)
	setString("CENSUS_DB_USER", &c.Database.User)
	setString("CENSUS_DB_PASSWORD", &c.Database.Password)
	setString("CENSUS_DB_NAME", &c.Database.Name)
	setString("CENSUS_JWT_SECRET", &c.Auth.JWTSecret)
	setString("CENSUS_REDIS_ADDR", &c.Redis.Addr)
	setString("CENSUS_REDIS_PASSWORD", &c.Redis.Password)
	setString("CENSUS_LOG_LEVEL", &c.LogLevel)
	setString("CENSUS_BUSINESS_DATE", &c.BusinessDate)

	if v, ok := os.LookupEnv("CENSUS_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CENSUS_DB_PORT %q: %w", v, err)
		}
		c.Database.Port = port
	}
	if v, ok := os.LookupEnv("CENSUS_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Shop.RetroactiveCoverageTerminationMaximumMonths < 0 ||
		c.Shop.EmploymentTerminationReportingWindowDays <= 0 ||
		c.Shop.CobraEnrollmentPeriodMonths <= 0 ||
		c.Shop.NewHireEnrollmentWindowDays <= 0 {
		return fmt.Errorf("invalid shop settings: %+v", c.Shop)
	}
	if c.BusinessDate != "" {
		if _, err := time.Parse(time.DateOnly, c.BusinessDate); err != nil {
			return fmt.Errorf("invalid business_date %q: %w", c.BusinessDate, err)
		}
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// Settings converts the shop section.
func (c *Config) Settings() eligibility.Settings {
	return eligibility.Settings{
		RetroactiveCoverageTerminationMaximumMonths: c.Shop.RetroactiveCoverageTerminationMaximumMonths,
		EmploymentTerminationReportingWindowDays:    c.Shop.EmploymentTerminationReportingWindowDays,
		CobraEnrollmentPeriodMonths:                 c.Shop.CobraEnrollmentPeriodMonths,
		NewHireEnrollmentWindowDays:                 c.Shop.NewHireEnrollmentWindowDays,
	}
}

// DB converts the database section.
func (c *Config) DB() *db.Config {
	return &db.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.Name,
		SSLMode:  c.Database.SSLMode,
	}
}

// Logger builds a production zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}
