package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env            string
	BaseURL        string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	PageLimit      int
	TokenPath      string
	LogLevel       string

	// Dev fixture server settings.
	DevPort         string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	DevStudentID    string
	DevPassword     string
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		BaseURL:         getEnv("ROLLCALL_SERVER", "http://localhost:8081"),
		RequestTimeout:  durationEnv("REQUEST_TIMEOUT", 30*time.Second),
		PollInterval:    durationEnv("POLL_INTERVAL", 30*time.Second),
		PageLimit:       intEnv("PAGE_LIMIT", 10),
		TokenPath:       getEnv("TOKEN_PATH", defaultTokenPath()),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevPort:         getEnv("DEV_PORT", "8081"),
		JWTIssuer:       getEnv("JWT_ISSUER", "rollcall-dev"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:       durationEnv("ACCESS_TTL", 12*time.Hour),
		DevStudentID:    getEnv("DEV_STUDENT_ID", "2021001"),
		DevPassword:     getEnv("DEV_PASSWORD", "password"),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rollcall-token"
	}
	return filepath.Join(home, ".rollcall", "token")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
