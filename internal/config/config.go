// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration read from the environment.
type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	RedisAddr  string
	RedisDB    int
	SessionTTL time.Duration

	QueueName         string
	HistorianBatch    int
	HistorianFlush    time.Duration
	InactivityTimeout time.Duration

	DatabaseURL string

	BotDelay   time.Duration
	MaxPlayers int
}

// Load reads the environment. Unset or malformed values fall back to defaults.
func Load() Config {
	return Config{
		Env:            getEnv("UNO_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:       getEnv("LOG_LEVEL", "debug"),

		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:    getEnvInt("REDIS_DB", 0),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		QueueName:         getEnv("HISTORIAN_QUEUE_NAME", "uno_actions"),
		HistorianBatch:    getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:    time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		InactivityTimeout: time.Duration(getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,

		DatabaseURL: databaseURL(),

		BotDelay:   getEnvDuration("BOT_DELAY", 1500*time.Millisecond),
		MaxPlayers: getEnvInt("MAX_PLAYERS", 10),
	}
}

// IsProduction reports whether UNO_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the
// POSTGRES_* and PG_* variables. Empty when neither is set.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

// getEnvDuration accepts Go durations ("2s") or plain milliseconds ("1500").
func getEnvDuration(key string, defVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defVal
	}
	return d
}

func getEnvList(key string, defVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defVal
	}
	return out
}
