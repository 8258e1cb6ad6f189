package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config holds all runtime settings, parsed from the environment.
type Config struct {
	DiscordToken    string        `env:"DISCORD_TOKEN,required,notEmpty"`
	DiscordClientID string        `env:"DISCORD_CLIENT_ID,required,notEmpty"`
	DiscordGuildID  string        `env:"DISCORD_GUILD_ID"`
	Owners          []string      `env:"BOT_OWNERS" envSeparator:","`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile         string        `env:"LOG_FILE"`
	DatabaseDriver  string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"data/zumy.db"`
	SaveDebounce    time.Duration `env:"SAVE_DEBOUNCE" envDefault:"300ms"`
	HotReload       bool          `env:"HOT_RELOAD"`
}

// New parses the environment into a Config. Missing required keys or an
// unusable database selection are startup faults.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	for i, owner := range cfg.Owners {
		cfg.Owners[i] = strings.TrimSpace(owner)
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q (want sqlite or postgres)", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// IsOwner reports whether the given user ID is in the owner allowlist.
func (c *Config) IsOwner(userID string) bool {
	for _, id := range c.Owners {
		if id != "" && id == userID {
			return true
		}
	}
	return false
}
