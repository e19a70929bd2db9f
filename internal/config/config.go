package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup and treated as immutable afterwards.
// Everything the handlers and the scheduler need — the TOTD channel, the
// epoch start date, the leaderboard page ceiling — lives here instead of
// package-level state.
type Config struct {
	AppEnv string
	Port   int

	// Discord
	DiscordAppID    string
	DiscordBotToken string
	DiscordAPIBase  string

	// Nadeo (dedicated server account)
	NadeoLogin    string
	NadeoPassword string

	// TOTD
	TOTDChannelID string
	TOTDFile      string
	TOTDCron      string
	// EpochStart is the first day a track of the day exists (2020-07-01).
	EpochStart time.Time
	// MaxLeaderboardPage is the fixed ceiling used for "last page" offsets.
	MaxLeaderboardPage int

	// Redis
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Rate limit
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Port = getInt("PORT", 3000)

	var missing []string

	cfg.DiscordAppID = strings.TrimSpace(os.Getenv("DISCORD_APP_ID"))
	if cfg.DiscordAppID == "" {
		missing = append(missing, "DISCORD_APP_ID")
	}
	cfg.DiscordBotToken = strings.TrimSpace(os.Getenv("DISCORD_TOKEN"))
	if cfg.DiscordBotToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	cfg.NadeoLogin = strings.TrimSpace(os.Getenv("NADEO_LOGIN"))
	if cfg.NadeoLogin == "" {
		missing = append(missing, "NADEO_LOGIN")
	}
	cfg.NadeoPassword = strings.TrimSpace(os.Getenv("NADEO_PASSWORD"))
	if cfg.NadeoPassword == "" {
		missing = append(missing, "NADEO_PASSWORD")
	}
	cfg.TOTDChannelID = strings.TrimSpace(os.Getenv("TOTD_CHANNEL_ID"))
	if cfg.TOTDChannelID == "" {
		missing = append(missing, "TOTD_CHANNEL_ID")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.DiscordAPIBase = getEnv("DISCORD_API_BASE", "https://discord.com/api/v10")
	cfg.TOTDFile = getEnv("TOTD_FILE", "totd.json")
	cfg.TOTDCron = getEnv("TOTD_CRON", "0 13 * * *")

	epoch := getEnv("TOTD_EPOCH", "2020-07-01")
	t, err := time.Parse("2006-01-02", epoch)
	if err != nil {
		return nil, fmt.Errorf("invalid TOTD_EPOCH %q: %w", epoch, err)
	}
	cfg.EpochStart = t

	cfg.MaxLeaderboardPage = getInt("LEADERBOARD_MAX_PAGE", 1000)

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPass = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	cfg.RLEnabled = getBool("RATE_LIMIT_ENABLED", true)
	cfg.RLLimit = getInt("RATE_LIMIT", 100)
	cfg.RLWindow = getDuration("RATE_LIMIT_WINDOW", time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
