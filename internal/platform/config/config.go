// Package config loads service configuration from the environment. Components
// receive the pieces they need through constructors; nothing reads the
// environment after startup.
package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// DatabaseURL enables the PostgreSQL stores; empty runs in-memory.
	DatabaseURL string

	// RedisAddr enables the SMS cooldown throttle; empty disables it.
	RedisAddr string

	// KafkaBrokers enables the Kafka audit sink; empty keeps audit in-memory.
	KafkaBrokers []string
	AuditTopic   string

	// JWTSecret signs donor tokens. TokenTTL defaults to 30 days, matching
	// the token lifetime donors were issued historically.
	JWTSecret string
	TokenTTL  time.Duration

	// Fast2SMSKey enables the real SMS provider; empty logs messages instead.
	Fast2SMSKey string
	// SMSCooldown suppresses repeat notifications to one number within the
	// window. Zero disables throttling.
	SMSCooldown time.Duration

	ShutdownTimeout time.Duration
}

func FromEnv() Config {
	cfg := Config{
		Addr:            getEnv("LIFELINK_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("LIFELINK_DATABASE_URL"),
		RedisAddr:       os.Getenv("LIFELINK_REDIS_ADDR"),
		AuditTopic:      getEnv("LIFELINK_AUDIT_TOPIC", "lifelink.audit"),
		JWTSecret:       getEnv("LIFELINK_JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        getDuration("LIFELINK_TOKEN_TTL", 30*24*time.Hour),
		Fast2SMSKey:     os.Getenv("LIFELINK_FAST2SMS_KEY"),
		SMSCooldown:     getDuration("LIFELINK_SMS_COOLDOWN", 0),
		ShutdownTimeout: getDuration("LIFELINK_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("LIFELINK_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
