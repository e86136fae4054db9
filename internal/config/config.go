package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		Mode               string   `mapstructure:"mode"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"server"`

	Database struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		Name         string `mapstructure:"name"`
		SSLMode      string `mapstructure:"sslmode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
		ApplySchema  bool   `mapstructure:"apply_schema"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Redis struct {
		Enabled    bool   `mapstructure:"enabled"`
		Addr       string `mapstructure:"addr"`
		Password   string `mapstructure:"password"`
		DB         int    `mapstructure:"db"`
		TTLSeconds int    `mapstructure:"ttl_seconds"`
	} `mapstructure:"redis"`

	Log struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`

	Loyalty struct {
		PointsPerVisit          int  `mapstructure:"points_per_visit"`
		InactivityDays          int  `mapstructure:"inactivity_days"`
		KeepGoalAfterRedemption bool `mapstructure:"keep_goal_after_redemption"`
	} `mapstructure:"loyalty"`
}

// Load reads configs/config.yaml (optional), .env (optional) and environment overrides.
// Nested keys map to env vars with underscores, e.g. DATABASE_HOST or LOYALTY_INACTIVITY_DAYS.
func Load() (*Config, error) {
	return LoadFile("configs/config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "barbershop_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.apply_schema", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "barbershop-backend")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_seconds", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("loyalty.points_per_visit", 1)
	v.SetDefault("loyalty.inactivity_days", 90)
	v.SetDefault("loyalty.keep_goal_after_redemption", false)
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret must be set (env JWT_SECRET)")
	}
	if c.Loyalty.PointsPerVisit < 1 {
		return fmt.Errorf("loyalty.points_per_visit must be at least 1, got %d", c.Loyalty.PointsPerVisit)
	}
	if c.Loyalty.InactivityDays < 1 {
		return fmt.Errorf("loyalty.inactivity_days must be at least 1, got %d", c.Loyalty.InactivityDays)
	}
	return nil
}
