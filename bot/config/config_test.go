package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadReadsDomainSections(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: yaml-token
  admin_ids: [11]
database:
  host: db
  name: avtobot
channel:
  id: -1001234
bot:
  timezone: Europe/Berlin
  recent_limit: 3
`)
	t.Setenv("CHANNEL_ID", "-1009999")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "yaml-token", cfg.Telegram.Token)
	require.Equal(t, []int64{11}, cfg.Telegram.AdminIDs)
	require.Equal(t, "db", cfg.Database.Host)
	require.Equal(t, int64(-1009999), cfg.Channel.ID)
	require.Equal(t, 3, cfg.Bot.RecentLimit)
	require.Equal(t, 20, cfg.Bot.SearchLimit)
	require.Equal(t, "Europe/Berlin", cfg.Bot.Location().String())
	require.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestNormalizeRequiresChannel(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	require.ErrorContains(t, cfg.Normalize(), "channel.id")
}

func TestNormalizeRejectsBadTimezone(t *testing.T) {
	cfg := &Config{Channel: ChannelConfig{ID: -1}, Bot: BotConfig{Timezone: "Mars/Olympus"}}
	cfg.Telegram.Token = "t"
	require.Error(t, cfg.Normalize())
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Channel: ChannelConfig{ID: -1}}
	cfg.Telegram.Token = "t"
	require.NoError(t, cfg.Normalize())
	require.Equal(t, "Asia/Tashkent", cfg.Bot.Timezone)
	require.Equal(t, 5, cfg.Bot.RecentLimit)
	require.Equal(t, 20, cfg.Bot.SearchLimit)
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UZT", 5*3600)
	b := BotConfig{location: loc}
	// 20:30 UTC is already the next day at UTC+5.
	now := time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC)
	got := b.StartOfDay(now)
	require.True(t, got.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, loc)))
}
