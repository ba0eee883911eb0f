package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Addr          string `env:"ADDR" envDefault:":8088"`
	Backend       string `env:"STORAGE_BACKEND" envDefault:"file"`
	DataFile      string `env:"DATA_FILE" envDefault:"data/data.json"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	User1Name     string `env:"USER1_NAME" envDefault:"User 1"`
	User2Name     string `env:"USER2_NAME" envDefault:"User 2"`
	SessionCookie string `env:"SESSION_COOKIE" envDefault:"dailywords_session"`
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case "file":
		if c.DataFile == "" {
			return errors.New("DATA_FILE is required when STORAGE_BACKEND=file")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, postgres")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}
