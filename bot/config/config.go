// Package config loads the avtobot configuration on top of the core config.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/avtobot/core/config"
	coredatabase "github.com/m3rciful/avtobot/core/database"
)

// ChannelConfig names the channel listings are published to.
type ChannelConfig struct {
	ID int64 `yaml:"id" envconfig:"CHANNEL_ID"`
}

// BotConfig holds domain knobs.
type BotConfig struct {
	// Timezone defines the day boundary of "today" statistics.
	Timezone    string `yaml:"timezone" envconfig:"BOT_TIMEZONE"`
	RecentLimit int    `yaml:"recent_limit" envconfig:"BOT_RECENT_LIMIT"`
	SearchLimit int    `yaml:"search_limit" envconfig:"BOT_SEARCH_LIMIT"`

	location *time.Location
}

// Location returns the parsed timezone, UTC before Normalize.
func (b BotConfig) Location() *time.Location {
	if b.location == nil {
		return time.UTC
	}
	return b.location
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Channel  ChannelConfig       `yaml:"channel"`
	Bot      BotConfig           `yaml:"bot"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads path, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core and domain settings and fills defaults.
// Database settings are validated by bootstrap.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if c.Channel.ID == 0 {
		return fmt.Errorf("channel.id is required")
	}

	tz := strings.TrimSpace(c.Bot.Timezone)
	if tz == "" {
		tz = "Asia/Tashkent"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid bot.timezone %q: %w", c.Bot.Timezone, err)
	}
	c.Bot.Timezone = tz
	c.Bot.location = loc

	if c.Bot.RecentLimit <= 0 {
		c.Bot.RecentLimit = 5
	}
	if c.Bot.SearchLimit < 0 {
		return fmt.Errorf("bot.search_limit must be >= 0")
	}
	if c.Bot.SearchLimit == 0 {
		c.Bot.SearchLimit = 20
	}
	return nil
}

// StartOfDay returns the beginning of the day containing now in the bot timezone.
func (b BotConfig) StartOfDay(now time.Time) time.Time {
	t := now.In(b.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
