package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// RateLimit describes one token bucket tier.
type RateLimit struct {
	// PerSecond is the sustained request rate.
	PerSecond int `json:"per_second" validate:"min=1"`
	// Burst is the number of requests that may be sent back to back.
	Burst int `json:"burst" validate:"min=1"`
}

// Credentials holds API authentication credentials for an exchange.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key"`
	// Secret is the base64-encoded signing secret issued with the key.
	Secret string `json:"secret"`
	// Passphrase is the third credential some exchanges issue alongside
	// the key pair.
	Passphrase string `json:"passphrase,omitempty"`
}

// Complete returns true when every credential field is present.
func (c *Credentials) Complete() bool {
	return c != nil && c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

// Config contains all configuration options for an exchange adapter.
// It covers authentication, networking, rate limiting, and circuit
// breaker settings.
type Config struct {
	Exchange    string       `json:"exchange" validate:"required"`
	Sandbox     bool         `json:"sandbox"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// Timeout is the maximum duration for a single HTTP request.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// PublicRateLimit throttles unauthenticated market data requests.
	PublicRateLimit RateLimit `json:"public_rate_limit"`
	// PrivateRateLimit throttles signed account and trading requests.
	PrivateRateLimit RateLimit `json:"private_rate_limit"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults for
// the specified exchange. Default values: 10s timeout, 3 retries,
// 100ms-1s retry wait, 3 req/s public and 5 req/s private rate tiers,
// circuit breaker with 5 failures/2 successes/30s timeout.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:     exchange,
		Sandbox:      false,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		PublicRateLimit:  RateLimit{PerSecond: 3, Burst: 6},
		PrivateRateLimit: RateLimit{PerSecond: 5, Burst: 10},

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimits sets both rate limit tiers and returns the config for chaining.
func (c *Config) WithRateLimits(public, private RateLimit) *Config {
	c.PublicRateLimit = public
	c.PrivateRateLimit = private
	return c
}
