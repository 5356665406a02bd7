package config

import (
	"fmt"
	"time"
)

// GrpcClientConfig is where a client dials and how long a single call may take.
type GrpcClientConfig struct {
	Addr    string        `koanf:"addr"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *GrpcClientConfig) String() string {
	return newSection("gRPC Client").
		add("addr", c.Addr).
		add("timeout", c.Timeout).
		String()
}

func (c *GrpcClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("gRPC address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gRPC timeout is not configured")
	}
	return nil
}

// ResilienceConfig tunes the retry and circuit breaker interceptors of a client.
type ResilienceConfig struct {
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// RetryConfig bounds retries. MaxAttempts counts the first call.
type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
}

// CircuitBreakerConfig decides when the breaker opens and for how long.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

// DefaultResilience is used by clients that are not configured from a file.
func DefaultResilience() ResilienceConfig {
	return ResilienceConfig{
		Retry: RetryConfig{MaxAttempts: 3, InitialBackoff: 100 * time.Millisecond},
		CircuitBreaker: CircuitBreakerConfig{
			ConsecutiveFailures: 5,
			ErrorRatePercent:    50,
			OpenTimeout:         10 * time.Second,
		},
	}
}

func (c *ResilienceConfig) String() string {
	return newSection("Resilience").
		add("retry.maxattempts", c.Retry.MaxAttempts).
		add("retry.initialbackoff", c.Retry.InitialBackoff).
		add("circuitbreaker.consecutivefailures", c.CircuitBreaker.ConsecutiveFailures).
		add("circuitbreaker.errorratepercent", c.CircuitBreaker.ErrorRatePercent).
		add("circuitbreaker.opentimeout", c.CircuitBreaker.OpenTimeout).
		String()
}

func (c *ResilienceConfig) Validate() error {
	switch {
	case c.Retry.MaxAttempts == 0:
		return fmt.Errorf("retry.maxattempts must be greater than 0")
	case c.Retry.InitialBackoff <= 0:
		return fmt.Errorf("retry.initialbackoff must be greater than 0")
	case c.CircuitBreaker.ConsecutiveFailures == 0:
		return fmt.Errorf("circuitbreaker.consecutivefailures must be greater than 0")
	case c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100:
		return fmt.Errorf("circuitbreaker.errorratepercent must be between 0 and 100")
	case c.CircuitBreaker.OpenTimeout <= 0:
		return fmt.Errorf("circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
