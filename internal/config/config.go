package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Port              string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	Storage           string

	JWTSecret     string
	SessionSecret string
	TokenTTL      time.Duration

	PublicURL       string
	ConfirmationURL string
	MaxDonation     decimal.Decimal

	UploadDir       string
	S3ReceiptBucket string
	AWSRegion       string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	TelegramBotToken     string
	TelegramReviewChatID int64
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		MongoURI:          os.Getenv("MONGOURI"),
		MongoDB:           getenv("MONGO_DB", "donationsdb"),
		MongoTransactions: getbool("MONGO_TRANSACTIONS"),
		Storage:           strings.ToLower(getenv("STORAGE", StorageMongo)),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		PublicURL:         strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:8080"), "/"),
		ConfirmationURL:   getenv("CONFIRMATION_URL", "/donation/thank-you"),
		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		S3ReceiptBucket:   os.Getenv("S3_RECEIPT_BUCKET"),
		AWSRegion:         getenv("AWS_REGION", "us-east-1"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          getenv("SMTP_PORT", "587"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:          os.Getenv("SMTP_FROM"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	limit, err := decimal.NewFromString(getenv("MAX_DONATION_AMOUNT", "1000000"))
	if err != nil || !limit.IsPositive() {
		return nil, fmt.Errorf("invalid MAX_DONATION_AMOUNT %q", os.Getenv("MAX_DONATION_AMOUNT"))
	}
	cfg.MaxDonation = limit

	if raw := os.Getenv("TELEGRAM_REVIEW_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_REVIEW_CHAT_ID: %w", err)
		}
		cfg.TelegramReviewChatID = id
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGOURI environment variable not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE %q", c.Storage)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if c.SessionSecret == "" {
		c.SessionSecret = c.JWTSecret
	}
	return nil
}

// SecureCookies reports whether the public site is served over TLS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

// CallbackURL is where the gateway sends the donor after checkout.
func (c *Config) CallbackURL() string {
	return c.PublicURL + "/api/donations/callback"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
