package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		Debug           bool          `yaml:"debug"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // memory | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		// AutoMigrate runs the embedded schema on startup
		AutoMigrate bool `yaml:"autoMigrate"`
	} `yaml:"database"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Archive struct {
		Enabled    bool          `yaml:"enabled"`
		PresignTTL time.Duration `yaml:"presignTTL"`
	} `yaml:"archive"`

	AI struct {
		Provider  string        `yaml:"provider"` // openai | gemini | offline
		Model     string        `yaml:"model"`
		APIKey    string        `yaml:"apiKey"`
		BaseURL   string        `yaml:"baseURL"`
		Timeout   time.Duration `yaml:"timeout"`
		MaxTokens int           `yaml:"maxTokens"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret string        `yaml:"jwtSecret"`
		TokenTTL  time.Duration `yaml:"tokenTTL"`
	} `yaml:"auth"`

	Quota struct {
		FreeTierLimit int `yaml:"freeTierLimit"`
	} `yaml:"quota"`

	Billing struct {
		Provider      string `yaml:"provider"` // simulated | stripe | none
		SecretKey     string `yaml:"secretKey"`
		WebhookSecret string `yaml:"webhookSecret"`
		PriceID       string `yaml:"priceID"`
		SuccessURL    string `yaml:"successURL"`
		CancelURL     string `yaml:"cancelURL"`
	} `yaml:"billing"`

	RateLimit struct {
		Capacity   int           `yaml:"capacity"`
		RefillRate int           `yaml:"refillRate"`
		Interval   time.Duration `yaml:"interval"`
	} `yaml:"rateLimit"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load baca file config.yaml, lalu timpa secret dari environment / .env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv load .env kalau ada. File tidak ada bukan error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv override secret dari environment variable
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	switch c.AI.Provider {
	case "gemini":
		override(&c.AI.APIKey, "GEMINI_API_KEY")
	default:
		override(&c.AI.APIKey, "OPENAI_API_KEY")
	}
	override(&c.Auth.JWTSecret, "JWT_SECRET")
	override(&c.Billing.SecretKey, "STRIPE_SECRET_KEY")
	override(&c.Billing.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	override(&c.Database.Password, "DB_PASSWORD")
	override(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
}

// Validate isi default dan tolak kombinasi yang tidak dikenal
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case "":
		c.Database.Driver = "memory"
	case "memory":
	case "mysql":
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
	case "postgres":
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	c.AI.Provider = strings.ToLower(c.AI.Provider)
	switch c.AI.Provider {
	case "":
		c.AI.Provider = "offline"
	case "offline":
	case "openai", "gemini":
		if c.AI.APIKey == "" {
			return fmt.Errorf("config: ai.apiKey is required for provider %s", c.AI.Provider)
		}
	default:
		return fmt.Errorf("config: unknown ai provider %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 60 * time.Second
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwtSecret (JWT_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Quota.FreeTierLimit <= 0 {
		c.Quota.FreeTierLimit = 3
	}

	c.Billing.Provider = strings.ToLower(c.Billing.Provider)
	switch c.Billing.Provider {
	case "":
		c.Billing.Provider = "simulated"
	case "simulated", "none":
	case "stripe":
		if c.Billing.SecretKey == "" || c.Billing.PriceID == "" {
			return errors.New("config: billing.secretKey and billing.priceID are required for stripe")
		}
	default:
		return fmt.Errorf("config: unknown billing provider %q", c.Billing.Provider)
	}
	if c.Billing.SuccessURL == "" {
		c.Billing.SuccessURL = "http://localhost:3000/billing/success"
	}
	if c.Billing.CancelURL == "" {
		c.Billing.CancelURL = "http://localhost:3000/billing/cancel"
	}

	if c.Archive.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return errors.New("config: archive needs minio.endpoint and minio.bucketName")
	}

	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillRate <= 0 {
		c.RateLimit.RefillRate = 10
	}
	if c.RateLimit.Interval <= 0 {
		c.RateLimit.Interval = time.Minute
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "alchemist:"
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
