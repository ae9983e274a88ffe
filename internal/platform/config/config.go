package config

import (
	"os"
	"strings"
	"time"
)

// Server captures the authentication service configuration. Optional
// collaborators (Redis, Postgres, Kafka) are disabled when their setting is
// empty; the service falls back to in-memory stores.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration

	RedisURL     string
	PostgresURL  string
	KafkaBrokers []string
	KafkaTopic   string

	PinataBaseURL   string
	PinataAPIKey    string
	PinataAPISecret string

	RelayURL        string
	RelaySponsorKey string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FIRTRACE_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		// Development default; must be overridden in production.
		signingKey = "dev-secret-key-change-in-production"
	}

	ttl := time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "firtrace.audit"
	}

	pinataURL := os.Getenv("PINATA_BASE_URL")
	if pinataURL == "" {
		pinataURL = "https://api.pinata.cloud"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   signingKey,
		JWTIssuer:       "firtrace",
		TokenTTL:        ttl,
		RedisURL:        os.Getenv("REDIS_URL"),
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		KafkaBrokers:    brokers,
		KafkaTopic:      topic,
		PinataBaseURL:   pinataURL,
		PinataAPIKey:    os.Getenv("PINATA_API_KEY"),
		PinataAPISecret: os.Getenv("PINATA_API_SECRET"),
		RelayURL:        os.Getenv("RELAY_URL"),
		RelaySponsorKey: os.Getenv("RELAY_SPONSOR_KEY"),
	}
}
