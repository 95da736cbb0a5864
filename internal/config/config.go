package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/utils"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Cache    CacheConfig    `yaml:"cache"`
	Sendgrid SendgridConfig `yaml:"sendgrid"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecretKey   string `yaml:"jwt_secret_key"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

type PaymentConfig struct {
	DefaultProvider string              `yaml:"default_provider"`
	Mock            MockProviderConfig  `yaml:"mock"`
	Stripe          StripeConfig        `yaml:"stripe"`
}

type MockProviderConfig struct {
	Enabled bool `yaml:"enabled"`
}

type StripeConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SecretKey      string `yaml:"secret_key"`
	PublishableKey string `yaml:"publishable_key"`
}

type CacheConfig struct {
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisAddr  string `yaml:"redis_addr"`
}

type SendgridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// Load reads the yaml config file at CONFIG_PATH (if set) and then applies
// environment overrides so container deployments can skip the file entirely.
func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: "8080"},
		Auth:   AuthConfig{JWTSecretKey: "defaultsecret", AccessTokenTTL: 3600},
		Payment: PaymentConfig{
			DefaultProvider: "mock",
			Mock:            MockProviderConfig{Enabled: true},
		},
		Cache: CacheConfig{TTLSeconds: 3600},
	}

	path := utils.GetEnv("CONFIG_PATH", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.Port = utils.GetEnv("PORT", cfg.Server.Port, log)
	cfg.Auth.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", cfg.Auth.JWTSecretKey, log)
	cfg.Auth.AccessTokenTTL = utils.GetEnvAsInt("ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL, log)
	cfg.Payment.DefaultProvider = utils.GetEnv("PAYMENT_DEFAULT_PROVIDER", cfg.Payment.DefaultProvider, log)
	cfg.Payment.Stripe.SecretKey = utils.GetEnv("STRIPE_SECRET_KEY", cfg.Payment.Stripe.SecretKey, log)
	cfg.Payment.Stripe.PublishableKey = utils.GetEnv("STRIPE_PUBLISHABLE_KEY", cfg.Payment.Stripe.PublishableKey, log)
	if cfg.Payment.Stripe.SecretKey != "" {
		cfg.Payment.Stripe.Enabled = true
	}
	cfg.Cache.TTLSeconds = utils.GetEnvAsInt("CACHE_TTL_SECONDS", cfg.Cache.TTLSeconds, log)
	cfg.Cache.RedisAddr = utils.GetEnv("REDIS_ADDR", cfg.Cache.RedisAddr, log)
	cfg.Sendgrid.APIKey = utils.GetEnv("SENDGRID_API_KEY", cfg.Sendgrid.APIKey, log)
	cfg.Sendgrid.FromEmail = utils.GetEnv("SENDGRID_FROM_EMAIL", cfg.Sendgrid.FromEmail, log)
	cfg.Sendgrid.FromName = utils.GetEnv("SENDGRID_FROM_NAME", cfg.Sendgrid.FromName, log)

	return cfg, nil
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTL) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
