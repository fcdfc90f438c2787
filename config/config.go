package config

import (
	"errors"
	"os"
	"strings"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string
	DatabaseURL   string
	MongoDatabase string
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	GinMode       string
	CORSOrigins   []string
	DBDebug       bool
}

// Load reads the configuration from environment variables, applying defaults
// for everything except the signing secret.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   getenv("DATABASE_URL", "sqlite://postable.db"),
		MongoDatabase: getenv("MONGODB_DATABASE", "postable"),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     getenv("JWT_ISSUER", "postable-api"),
		JWTAudience:   getenv("JWT_AUDIENCE", "postable-clients"),
		GinMode:       os.Getenv("GIN_MODE"),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "*")),
		DBDebug:       strings.EqualFold(os.Getenv("DB_DEBUG"), "true"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
