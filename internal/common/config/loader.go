package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AI_DEFAULT_PROVIDER
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored if absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory upward so tests run from
// nested packages still pick it up.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "learning-engine"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "openai"
	}

	e := &cfg.Engine
	if e.LowThreshold == 0 {
		e.LowThreshold = 550
	}
	if e.CriticalThreshold == 0 {
		e.CriticalThreshold = 450
	}
	if e.TargetScore == 0 {
		e.TargetScore = 650
	}
	if e.CooldownDays == 0 {
		e.CooldownDays = 30
	}
	if e.CandidatePoolSize == 0 {
		e.CandidatePoolSize = 10
	}
	if e.MaxAIPerSkill == 0 {
		e.MaxAIPerSkill = 10
	}
	if e.CleanupAgeDays == 0 {
		e.CleanupAgeDays = 90
	}
	if e.CleanupIntervalMin == 0 {
		e.CleanupIntervalMin = 60
	}
	if e.Retry.MaxAttempts == 0 {
		e.Retry.MaxAttempts = 3
	}
	if e.Retry.BaseDelayMs == 0 {
		e.Retry.BaseDelayMs = 1000
	}
	if e.Cache.TTLMinutes == 0 {
		e.Cache.TTLMinutes = 60
	}
	if e.Cache.MaxSize == 0 {
		e.Cache.MaxSize = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Engine.CriticalThreshold >= cfg.Engine.LowThreshold {
		return fmt.Errorf("critical threshold %.0f must be below low threshold %.0f",
			cfg.Engine.CriticalThreshold, cfg.Engine.LowThreshold)
	}
	if cfg.AI.Enabled && len(cfg.AI.Providers) == 0 {
		return fmt.Errorf("ai enabled but no providers configured")
	}
	for name, p := range cfg.AI.Providers {
		if p.Enabled && p.APIKey == "" {
			return fmt.Errorf("provider %s enabled without api key", name)
		}
	}
	return nil
}
