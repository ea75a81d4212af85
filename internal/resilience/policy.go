package resilience

import "time"

type Config struct {
	RetryMaxAttempts    int           `mapstructure:"retry-max-attempts"`
	RetryInitialBackoff time.Duration `mapstructure:"retry-initial-backoff"`
	RetryMaxBackoff     time.Duration `mapstructure:"retry-max-backoff"`
	RetryMultiplier     float64       `mapstructure:"retry-multiplier"`

	BreakerEnabled          bool          `mapstructure:"breaker-enabled"`
	BreakerMinRequests      uint32        `mapstructure:"breaker-min-requests"`
	BreakerFailureRatio     float64       `mapstructure:"breaker-failure-ratio"`
	BreakerOpenTimeout      time.Duration `mapstructure:"breaker-open-timeout"`
	BreakerHalfOpenMaxCalls uint32        `mapstructure:"breaker-half-open-max-calls"`
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
