package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServiceName string

	ServerPort int
	LogLevel   string

	DatabaseURL string

	SessionSecret []byte
	SessionSecure bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	OnlineBranchID   uint
	OnlineEmployeeID uint

	LoginRate string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "curepoint"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),
		SessionSecure: EnvBoolDefault("SESSION_SECURE", false),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "medicines"),

		OnlineBranchID:   uint(EnvIntDefault("ONLINE_BRANCH_ID", 1)),
		OnlineEmployeeID: uint(EnvIntDefault("ONLINE_EMPLOYEE_ID", 153398)),

		LoginRate: EnvDefault("LOGIN_RATE", "10-M"),
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
	if os.Getenv(key) != "" {
		return os.Getenv(key)
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

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
