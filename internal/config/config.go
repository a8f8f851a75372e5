package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

type Config struct {
	DatabaseDriver  string
	DatabaseURL     string
	MigrationsPath  string
	Port            int
	Locale          string
	Location        *time.Location
	SweepInterval   time.Duration
	ReminderLead    time.Duration
	SessionLifetime time.Duration
}

// Load reads the configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	// .env is optional when the variables come from the environment.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseDriver: getenv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "migrations"),
		Locale:         getenv("LOCALE", "en"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getenv("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(getenv("SLOT_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("config: invalid SLOT_TIMEZONE: %w", err)
	}
	if cfg.SweepInterval, err = duration("SWEEP_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.ReminderLead, err = duration("REMINDER_LEAD", "2h"); err != nil {
		return nil, err
	}
	if cfg.SessionLifetime, err = duration("SESSION_LIFETIME", "24h"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite3":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "pitch_league.db?_journal_mode=WAL"
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("config: DATABASE_DRIVER must be sqlite3 or postgres, got %q", c.DatabaseDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("config: invalid LOCALE %q: %w", c.Locale, err)
	}
	if c.SweepInterval <= 0 || c.ReminderLead <= 0 || c.SessionLifetime <= 0 {
		return fmt.Errorf("config: durations must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return d, nil
}
