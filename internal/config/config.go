package config

import (
	"fmt"
	"time"

	"github.com/lingo-app/lingo-backend/pkg/env"
)

// Config holds all service configuration, loaded from the environment
type Config struct {
	Env  string
	Port int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AppURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PeerServerURL  string
	PeerServerPath string
	PeerTimeout    time.Duration

	RingTimeout time.Duration

	PushProvider        string // fcm, mock
	FirebaseProjectID   string
	FirebaseCredentials string
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development
func Load() *Config {
	return &Config{
		Env:  env.GetString("ENV", "development"),
		Port: env.GetInt("PORT", 8080),

		DBHost:     env.GetString("DB_HOST", "localhost"),
		DBPort:     env.GetInt("DB_PORT", 5432),
		DBUser:     env.GetString("DB_USER", "postgres"),
		DBPassword: env.GetStringFromFile("DB_PASSWORD", ""),
		DBName:     env.GetString("DB_NAME", "lingo"),
		DBSSLMode:  env.GetString("DB_SSLMODE", "disable"),

		RedisHost:     env.GetString("REDIS_HOST", "localhost"),
		RedisPort:     env.GetInt("REDIS_PORT", 6379),
		RedisPassword: env.GetStringFromFile("REDIS_PASSWORD", ""),

		JWTSecret:       env.GetStringFromFile("JWT_SECRET", ""),
		AccessTokenTTL:  env.GetDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: env.GetDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		AppURL: env.GetString("APP_URL", "http://localhost:3000"),

		SMTPHost:     env.GetString("SMTP_HOST", ""),
		SMTPPort:     env.GetInt("SMTP_PORT", 587),
		SMTPUsername: env.GetString("SMTP_USERNAME", ""),
		SMTPPassword: env.GetStringFromFile("SMTP_PASSWORD", ""),
		SMTPFrom:     env.GetString("SMTP_FROM", "no-reply@lingo.app"),

		PeerServerURL:  env.GetString("PEER_SERVER_URL", "http://localhost:9000"),
		PeerServerPath: env.GetString("PEER_SERVER_PATH", "lingo"),
		PeerTimeout:    env.GetDuration("PEER_TIMEOUT", 10*time.Second),

		RingTimeout: env.GetDuration("RING_TIMEOUT", 60*time.Second),

		PushProvider:        env.GetString("PUSH_PROVIDER", "mock"),
		FirebaseProjectID:   env.GetStringFromFile("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: env.GetString("FIREBASE_CREDENTIALS_FILE", ""),
	}
}

// DBConnString returns the Postgres connection string
func (c *Config) DBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
