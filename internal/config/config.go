package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds process settings. Values come from an optional YAML file
// (CONFIG_FILE) and are overridden by environment variables.
type Config struct {
	Port              string `yaml:"port"`
	Env               string `yaml:"env"`
	AllowedOrigins    string `yaml:"allowedOrigins"`
	RedisAddr         string `yaml:"redisAddr"`
	RoomEventsChannel string `yaml:"roomEventsChannel"`
	ReportDenied      bool   `yaml:"reportDenied"`
	CensusSchedule    string `yaml:"censusSchedule"`
	ClientBuffer      int    `yaml:"clientBuffer"`

	DatabaseURL string `yaml:"databaseUrl"`
	SQLitePath  string `yaml:"sqlitePath"`
	JWTSecret   string `yaml:"jwtSecret"`
	BackendURL  string `yaml:"backendUrl"`

	SMTP SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

func defaults() *Config {
	return &Config{
		Port:              "8080",
		Env:               "prod",
		AllowedOrigins:    "*",
		RoomEventsChannel: "rooms:events",
		CensusSchedule:    "@every 1m",
		ClientBuffer:      256,
		SQLitePath:        "lazyweb.db",
		BackendURL:        "http://localhost:8080",
		SMTP: SMTPConfig{
			Host: "smtp.zoho.in",
			Port: "465",
		},
	}
}

// LoadConfig builds the configuration from CONFIG_FILE (if set) and the environment.
func LoadConfig() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.AllowedOrigins = getEnvOrDefault("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RoomEventsChannel = getEnvOrDefault("ROOM_EVENTS_CHANNEL", cfg.RoomEventsChannel)
	cfg.CensusSchedule = getEnvOrDefault("CENSUS_SCHEDULE", cfg.CensusSchedule)
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnvOrDefault("SQLITE_PATH", cfg.SQLitePath)
	cfg.JWTSecret = getEnvOrDefault("JWT_SECRET_KEY", cfg.JWTSecret)
	cfg.BackendURL = getEnvOrDefault("BACKEND_URL", cfg.BackendURL)

	cfg.SMTP.Host = getEnvOrDefault("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvOrDefault("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.User = getEnvOrDefault("SMTP_USER", cfg.SMTP.User)
	cfg.SMTP.Pass = getEnvOrDefault("SMTP_PASS", cfg.SMTP.Pass)
	cfg.SMTP.From = getEnvOrDefault("SMTP_FROM", cfg.SMTP.From)

	if v := os.Getenv("ROOMS_REPORT_DENIED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ROOMS_REPORT_DENIED: %w", err)
		}
		cfg.ReportDenied = b
	}
	if v := os.Getenv("CLIENT_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CLIENT_BUFFER: %w", err)
		}
		cfg.ClientBuffer = n
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("port must not be empty")
	}
	if cfg.ClientBuffer <= 0 {
		return errors.New("client buffer must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
