// Package config loads bioshop settings from .env, an optional YAML file and
// the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	Port     string `yaml:"port"`

	Mongo    MongoConfig    `yaml:"mongo"`
	Auth     AuthConfig     `yaml:"auth"`
	Cart     CartConfig     `yaml:"cart"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Locales  []string       `yaml:"locales"`
	Storage  StorageConfig  `yaml:"storage"`
	Mail     MailConfig     `yaml:"mail"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool `yaml:"-"`
}

type MongoConfig struct {
	URI          string        `yaml:"uri"`
	Database     string        `yaml:"database"`
	Transactions bool          `yaml:"transactions"`
	Timeout      time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type CartConfig struct {
	TTLDays      int  `yaml:"ttl_days"`
	CookieSecure bool `yaml:"cookie_secure"`
}

// TTL is the advisory lifetime of a cart and its session cookie.
func (c CartConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

type PricingConfig struct {
	TaxRate               float64 `yaml:"tax_rate"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold"`
	ShippingFee           float64 `yaml:"shipping_fee"`
	Currency              string  `yaml:"currency"`
}

type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	UploadURL string `yaml:"upload_url"`
	BackupDir string `yaml:"backup_dir"`
	// MaxUploadBytes caps a single media upload.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

type MailConfig struct {
	Provider       string `yaml:"provider"`
	PostmarkToken  string `yaml:"postmark_token"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	Sender         string `yaml:"sender"`
	// Notify receives a copy of every new order.
	Notify string `yaml:"notify"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	Queue           string `yaml:"queue"`
	ChannelPoolSize int    `yaml:"channel_pool_size"`
}

// Mail providers.
const (
	MailLog      = "log"
	MailPostmark = "postmark"
	MailSendGrid = "sendgrid"
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		AppEnv:   "dev",
		LogLevel: "info",
		Port:     "8000",
		Mongo: MongoConfig{
			URI:          "mongodb://localhost:27017",
			Database:     "bioshop",
			Transactions: true,
			Timeout:      10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Cart: CartConfig{
			TTLDays: 30,
		},
		Pricing: PricingConfig{
			TaxRate:               0.18,
			FreeShippingThreshold: 1000,
			ShippingFee:           100,
			Currency:              "INR",
		},
		Locales: []string{"en", "hi", "ta"},
		Storage: StorageConfig{
			UploadDir:      "uploads",
			UploadURL:      "/uploads",
			BackupDir:      "backups",
			MaxUploadBytes: 10 << 20,
		},
		Mail: MailConfig{
			Provider: MailLog,
			Sender:   "orders@example.com",
		},
		RabbitMQ: RabbitMQConfig{
			Queue:           "order_events",
			ChannelPoolSize: 4,
		},
	}
}

// Load builds the configuration. path names an optional YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err == nil {
		cfg.DotEnvLoaded = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("BIOSHOP_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnv("PORT", c.Port)

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB", c.Mongo.Database)
	c.Mongo.Transactions = getEnvBool("MONGO_TRANSACTIONS", c.Mongo.Transactions)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)

	c.Cart.TTLDays = getEnvInt("CART_TTL_DAYS", c.Cart.TTLDays)
	c.Cart.CookieSecure = getEnvBool("COOKIE_SECURE", c.Cart.CookieSecure)

	c.Pricing.TaxRate = getEnvFloat("TAX_RATE", c.Pricing.TaxRate)
	c.Pricing.FreeShippingThreshold = getEnvFloat("FREE_SHIPPING_THRESHOLD", c.Pricing.FreeShippingThreshold)
	c.Pricing.ShippingFee = getEnvFloat("SHIPPING_FEE", c.Pricing.ShippingFee)
	c.Pricing.Currency = getEnv("CURRENCY", c.Pricing.Currency)

	c.Locales = getEnvList("SUPPORTED_LOCALES", c.Locales)

	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.BackupDir = getEnv("BACKUP_DIR", c.Storage.BackupDir)

	c.Mail.Provider = getEnv("MAIL_PROVIDER", c.Mail.Provider)
	c.Mail.PostmarkToken = getEnv("POSTMARK_API_TOKEN", c.Mail.PostmarkToken)
	c.Mail.SendGridAPIKey = getEnv("SENDGRID_API_KEY", c.Mail.SendGridAPIKey)
	c.Mail.Sender = getEnv("EMAIL_SENDER", c.Mail.Sender)
	c.Mail.Notify = getEnv("ORDER_NOTIFY_EMAIL", c.Mail.Notify)

	c.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.RabbitMQ.Queue = getEnv("RABBITMQ_QUEUE", c.RabbitMQ.Queue)
	c.RabbitMQ.ChannelPoolSize = getEnvInt("CHANNEL_POOL_SIZE", c.RabbitMQ.ChannelPoolSize)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Pricing.TaxRate < 0 {
		return fmt.Errorf("tax rate cannot be negative: %v", c.Pricing.TaxRate)
	}
	if c.Pricing.ShippingFee < 0 || c.Pricing.FreeShippingThreshold < 0 {
		return errors.New("shipping fee and free shipping threshold cannot be negative")
	}
	if c.Cart.TTLDays <= 0 {
		return fmt.Errorf("cart ttl must be positive: %d", c.Cart.TTLDays)
	}
	if len(c.Locales) == 0 {
		return errors.New("at least one locale is required")
	}
	switch c.Mail.Provider {
	case MailLog:
	case MailPostmark:
		if c.Mail.PostmarkToken == "" {
			return errors.New("POSTMARK_API_TOKEN is required for the postmark mail provider")
		}
	case MailSendGrid:
		if c.Mail.SendGridAPIKey == "" {
			return errors.New("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}
	if c.Auth.JWTSecret == "" && !c.IsDev() {
		return errors.New("JWT_SECRET is required outside dev")
	}
	return nil
}

// IsDev reports whether the server runs in the development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
