package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	DefaultTenant string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	MigrationsDir string   `mapstructure:"MIGRATIONS_DIR"`

	// PostDischargeBedStatus is the state a bed enters when its occupant
	// is discharged. A bed never goes straight back to available; it has
	// to pass through housekeeping first.
	PostDischargeBedStatus string `mapstructure:"POST_DISCHARGE_BED_STATUS"`

	// TransferReserveOnSchedule controls whether a transfer with a future
	// scheduled time reserves its destination bed at request time.
	TransferReserveOnSchedule bool `mapstructure:"TRANSFER_RESERVE_ON_SCHEDULE"`

	NotifyMaxRetries int     `mapstructure:"NOTIFY_MAX_RETRIES"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("POST_DISCHARGE_BED_STATUS", "cleaning")
	v.SetDefault("TRANSFER_RESERVE_ON_SCHEDULE", false)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("POST_DISCHARGE_BED_STATUS")
	v.BindEnv("TRANSFER_RESERVE_ON_SCHEDULE")
	v.BindEnv("NOTIFY_MAX_RETRIES")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run with.
func (c *Config) Validate() error {
	switch c.PostDischargeBedStatus {
	case "cleaning", "maintenance":
	case "available":
		return fmt.Errorf("POST_DISCHARGE_BED_STATUS must not be %q: a discharged bed must pass through housekeeping before re-entering the available pool", c.PostDischargeBedStatus)
	default:
		return fmt.Errorf("POST_DISCHARGE_BED_STATUS must be \"cleaning\" or \"maintenance\", got %q", c.PostDischargeBedStatus)
	}

	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.NotifyMaxRetries < 0 {
		return fmt.Errorf("NOTIFY_MAX_RETRIES must be >= 0, got %d", c.NotifyMaxRetries)
	}
	return nil
}
