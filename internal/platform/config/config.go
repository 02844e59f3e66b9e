package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	DevSeed       bool
	Policy        Policy
}

// RedisConfig configures the optional campaign read cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CampaignTTL  time.Duration
}

// KafkaConfig configures the audit event feed.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	DrainInterval time.Duration
}

// Policy captures behaviors the observed engine left open. Both default to
// the behavior the original exercised.
type Policy struct {
	// MatchingWhilePaused permits addMatchingFunds on a paused campaign.
	MatchingWhilePaused bool
	// EnforceExpiry rejects donations after a campaign's end time.
	EnforceExpiry bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FUNDMATCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "fundmatch.audit"
	}

	return Server{
		Addr:        addr,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CampaignTTL:  5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       brokers,
			Topic:         topic,
			DrainInterval: time.Second,
		},
		JWTSigningKey: jwtSigningKey,
		DevSeed:       os.Getenv("DEV_SEED") == "true",
		Policy: Policy{
			MatchingWhilePaused: os.Getenv("DENY_MATCHING_WHILE_PAUSED") != "true",
			EnforceExpiry:       os.Getenv("ENFORCE_CAMPAIGN_EXPIRY") == "true",
		},
	}
}
