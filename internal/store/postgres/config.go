package postgres

import (
	"fmt"
	"time"
)

// StoreConfig controls transaction behaviour of the PostgreSQL store.
// Pool configuration is handled separately via PoolConfig.
type StoreConfig struct {
	// MaxTxAttempts bounds how many times a transaction is run when it keeps
	// failing with a serialization conflict or deadlock.
	// Default: 5
	MaxTxAttempts uint

	// RetryInitialInterval is the first delay between attempts. Later delays
	// grow exponentially with jitter.
	// Default: 10ms
	RetryInitialInterval time.Duration

	// RetryMaxInterval caps the delay between attempts.
	// Default: 500ms
	RetryMaxInterval time.Duration
}

// Validate checks that the configuration is valid.
func (c *StoreConfig) Validate() error {
	if c.RetryMaxInterval < c.RetryInitialInterval {
		return fmt.Errorf("retry max interval %s is less than initial interval %s", c.RetryMaxInterval, c.RetryInitialInterval)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *StoreConfig) ApplyDefaults() {
	if c.MaxTxAttempts == 0 {
		c.MaxTxAttempts = 5
	}
	if c.RetryInitialInterval == 0 {
		c.RetryInitialInterval = 10 * time.Millisecond
	}
	if c.RetryMaxInterval == 0 {
		c.RetryMaxInterval = 500 * time.Millisecond
	}
}
