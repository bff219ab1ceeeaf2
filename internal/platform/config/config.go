package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr            string
	AdminEmail      string
	JWTSigningKey   string
	TokenTTL        time.Duration
	CookieName      string
	DatabaseURL     string
	Redis           RedisConfig
	Kafka           KafkaConfig
	DefaultCurrency string
}

// RedisConfig holds connection settings for the event channel.
type RedisConfig struct {
	URL          string
	Channel      string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds producer settings for the event topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("VAULTBANK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@admin.com"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 30 * time.Minute
	if raw := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			tokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	cookieName := os.Getenv("ACCESS_TOKEN_COOKIE")
	if cookieName == "" {
		cookieName = "access_token"
	}

	currency := os.Getenv("DEFAULT_CURRENCY")
	if currency == "" {
		currency = "USD"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_EVENT_TOPIC")
	if topic == "" {
		topic = "vaultbank.ledger.events"
	}

	channel := os.Getenv("REDIS_EVENT_CHANNEL")
	if channel == "" {
		channel = "ledger:events"
	}

	return Server{
		Addr:          addr,
		AdminEmail:    adminEmail,
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		CookieName:    cookieName,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Channel:      channel,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		DefaultCurrency: currency,
	}
}
