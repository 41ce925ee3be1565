package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Config struct {
	Addr         string   `envconfig:"ADDR" default:":8080"`
	AllowOrigins string   `envconfig:"ALLOW_ORIGINS" default:"*"`
	DatabaseURL  string   `envconfig:"DATABASE_URL"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"LOG_FORMAT" default:"json"`
	JWT          JWT      `ignored:"true"`
	Redis        Redis    `ignored:"true"`
	Payment      Payment  `ignored:"true"`
	Delivery     Delivery `ignored:"true"`
}

// DevJWTSecret is the JWT_SECRET default. Tokens signed with it can be
// forged by anyone.
const DevJWTSecret = "dev-secret"

type JWT struct {
	Secret string        `envconfig:"JWT_SECRET" default:"dev-secret"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"72h"`
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Username string `envconfig:"REDIS_USERNAME"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// CacheTTL applies to catalog entries.
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"5m"`
}

type Payment struct {
	BaseURL     string        `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	SecretKey   string        `envconfig:"PAYSTACK_SECRET_KEY"`
	CallbackURL string        `envconfig:"PAYMENT_CALLBACK_URL"`
	Currency    string        `envconfig:"PAYMENT_CURRENCY" default:"NGN"`
	Timeout     time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
}

type Delivery struct {
	Fee decimal.Decimal `envconfig:"DELIVERY_FEE" default:"3.99"`
	// FreeOver waives the fee once the subtotal reaches it. Zero disables.
	FreeOver decimal.Decimal `envconfig:"FREE_DELIVERY_OVER" default:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	for _, section := range []interface{}{&cfg.JWT, &cfg.Redis, &cfg.Payment, &cfg.Delivery} {
		if err := envconfig.Process("", section); err != nil {
			return Config{}, errors.Wrap(err, "load config")
		}
	}
	return cfg, nil
}

// Warnings lists settings that are fine for local development but unsafe
// to serve real traffic with.
func (c Config) Warnings() []string {
	var out []string
	if c.JWT.Secret == DevJWTSecret || c.JWT.Secret == "" {
		out = append(out, "JWT_SECRET is not set, tokens are signed with a publicly known key")
	}
	if c.Payment.SecretKey == "" {
		out = append(out, "PAYSTACK_SECRET_KEY is not set, card payments will be rejected")
	}
	return out
}
