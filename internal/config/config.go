package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// JWT key material for the session tokens issued by the identity provider.
	// HS* secrets are used as-is, RS* keys are PEM-encoded public keys.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Webhook signing secrets. Clerk uses svix signatures, Stripe its own scheme.
	ClerkWebhookSecret  string `envconfig:"CLERK_WEBHOOK_SECRET" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`

	// Upper bound for a single store operation. Webhook deliveries are retried
	// by the providers, so timing out and failing the request is safe.
	StoreTimeoutSec int `envconfig:"STORE_TIMEOUT_SEC" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StoreTimeout returns StoreTimeoutSec as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSec) * time.Second
}
