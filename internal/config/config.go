// internal/config/config.go
//
// Environment configuration. main loads .env first (godotenv), then Load
// reads the process environment with defaults.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	Game    GameConfig
	Puzzle  PuzzleConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port         string
	Env          string // NODE_ENV: "development" or "production"
	ClientOrigin string
	DBPath       string
}

type AuthConfig struct {
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
}

// GameConfig tunes sessions and the bubble loop.
type GameConfig struct {
	DefaultDifficulty string
	FeedbackDelay     time.Duration
	ResizeDebounce    time.Duration
	FrameInterval     time.Duration
	TableIdle         time.Duration // tables untouched this long are swept
	SweepInterval     time.Duration
}

type PuzzleConfig struct {
	APIURL      string // empty: serve puzzles from the local database
	DailySalt   string
	SeedOnStart bool
}

type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5175"),
			Env:          getEnv("NODE_ENV", "development"),
			ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
			DBPath:       getEnv("DB_PATH", "./data/triads.db"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
			JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
			CookieName:     getEnv("COOKIE_NAME", "triads_token"),
		},
		Game: GameConfig{
			DefaultDifficulty: strings.ToLower(getEnv("DEFAULT_DIFFICULTY", "easy")),
			FeedbackDelay:     getEnvMillis("FEEDBACK_DELAY_MS", 3000),
			ResizeDebounce:    getEnvMillis("RESIZE_DEBOUNCE_MS", 250),
			FrameInterval:     getEnvMillis("FRAME_INTERVAL_MS", 16),
			TableIdle:         time.Duration(getEnvInt("TABLE_IDLE_MINUTES", 30)) * time.Minute,
			SweepInterval:     time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		},
		Puzzle: PuzzleConfig{
			APIURL:      getEnv("PUZZLE_API_URL", ""),
			DailySalt:   getEnv("DAILY_SALT", "local_dev_salt"),
			SeedOnStart: getEnvBool("SEED_ON_START", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// IsProduction reports whether cookies should be Secure.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvMillis(k string, def int) time.Duration {
	return time.Duration(getEnvInt(k, def)) * time.Millisecond
}

func getEnvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
