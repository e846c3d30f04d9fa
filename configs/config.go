package config

import (
	"encoding/base64"
	"errors"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != "" && r.PublicURL != ""
}

type Config struct {
	HTTPAddr    string
	LogLevel    string
	FrontendURL string

	FacebookAppID              string
	FacebookAppSecret          string
	FacebookRedirectURI        string
	FacebookWebhookVerifyToken string

	InstagramClientID           string
	InstagramClientSecret       string
	InstagramRedirectURI        string
	InstagramWebhookVerifyToken string

	GraphAPIVersion string
	// outbound Graph calls per second, per platform client
	GraphRateLimit float64

	InstagramPollAttempts int
	InstagramPollInterval time.Duration

	PostgresURI string
	RedisURI    string
	R2          R2

	// SecretKey signs OAuth state tokens and validates admin sessions.
	SecretKey          string
	CookieName         string
	TokenEncryptionKey []byte
}

func LoadConfig() *Config {
	cfg := &Config{
		HTTPAddr:                    getEnv("HTTP_ADDR", ":3000"),
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
		FrontendURL:                 getEnv("FRONTEND_URL", "http://localhost:5173"),
		FacebookAppID:               getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:           getEnv("FACEBOOK_APP_SECRET", ""),
		FacebookRedirectURI:         getEnv("FACEBOOK_REDIRECT_URI", ""),
		FacebookWebhookVerifyToken:  getEnv("FACEBOOK_WEBHOOK_VERIFY_TOKEN", ""),
		InstagramClientID:           getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret:       getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		InstagramRedirectURI:        getEnv("INSTAGRAM_REDIRECT_URI", ""),
		InstagramWebhookVerifyToken: getEnv("INSTAGRAM_WEBHOOK_VERIFY_TOKEN", ""),
		GraphAPIVersion:             getEnv("GRAPH_API_VERSION", "v21.0"),
		GraphRateLimit:              getEnvFloat("GRAPH_RATE_LIMIT", 5),
		InstagramPollAttempts:       getEnvInt("INSTAGRAM_POLL_ATTEMPTS", 10),
		InstagramPollInterval:       getEnvDuration("INSTAGRAM_POLL_INTERVAL", 3*time.Second),
		PostgresURI:                 getEnv("POSTGRES_URI", ""),
		RedisURI:                    getEnv("REDIS_URI", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "portal_admin"),
	}

	if raw := os.Getenv("TOKEN_ENCRYPTION_KEY"); raw != "" {
		if key, err := base64.StdEncoding.DecodeString(raw); err == nil {
			cfg.TokenEncryptionKey = key
		}
	}

	return cfg
}

// Validate reports the first missing or malformed setting the server cannot start without.
func (c *Config) Validate() error {
	if c.PostgresURI == "" {
		return errors.New("POSTGRES_URI is required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if len(c.TokenEncryptionKey) != 32 {
		return errors.New("TOKEN_ENCRYPTION_KEY must be 32 bytes, base64 encoded")
	}
	if c.InstagramPollAttempts < 1 {
		return errors.New("INSTAGRAM_POLL_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
