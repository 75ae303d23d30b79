package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustServe aborts startup when a setting the HTTP server cannot run without is missing.
func (c Config) MustServe() {
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(c.SessionSecret, "SESSION_SECRET")
	if len(c.SessionSecret) < 32 {
		log.Fatalf("SESSION_SECRET must be at least 32 bytes, got %d", len(c.SessionSecret))
	}
}
