package config

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	KafkaBrokers []string
	KafkaTopic   string

	ESURL       string
	ESUser      string
	ESPassword  string
	ESTaskIndex string

	RedisURL string

	OrderRepairCron string

	CORSOrigins []string
}

const (
	defaultAccessTTL  = "15m"
	defaultRefreshTTL = "7d"
)

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "taskboard"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		AccessTokenTTL:  EnvDurationDefault("ACCESS_TOKEN_EXPIRY", defaultAccessTTL),
		RefreshTokenTTL: EnvDurationDefault("REFRESH_TOKEN_EXPIRY", defaultRefreshTTL),

		LogLevel:      EnvDefault("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSizeMB:  EnvIntDefault("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: EnvIntDefault("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: EnvIntDefault("LOG_MAX_AGE_DAYS", 30),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "board_events"),

		ESURL:       os.Getenv("ES_URL"),
		ESUser:      os.Getenv("ES_USER"),
		ESPassword:  os.Getenv("ES_PASSWORD"),
		ESTaskIndex: EnvDefault("ES_TASK_INDEX", "tasks"),

		RedisURL: os.Getenv("REDIS_URL"),

		OrderRepairCron: os.Getenv("ORDER_REPAIR_CRON"),

		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

var expiryPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseExpiry accepts values like "15m", "12h" or "7d".
func ParseExpiry(v string) (time.Duration, bool) {
	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	unit := time.Minute
	switch m[2] {
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, true
}

// EnvDurationDefault reads an expiry from the environment. Invalid values
// fall back to def with a single warning.
func EnvDurationDefault(key, def string) time.Duration {
	fallback, _ := ParseExpiry(def)
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, ok := ParseExpiry(v)
	if !ok {
		log.Printf("invalid %s=%q, using default %s", key, v, def)
		return fallback
	}
	return d
}
