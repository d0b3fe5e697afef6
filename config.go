package pharos

import "time"

// Config holds the per-client defaults applied to every engine it creates.
type Config struct {
	// PollInterval is the delay between poll cycles. Zero keeps the
	// engine default: a uniformly random sub-second sleep per cycle.
	PollInterval time.Duration

	// StopTimeout bounds how long Shutdown waits for each engine's poll
	// task to observe the stop flag and exit.
	StopTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 0,
		StopTimeout:  5 * time.Second,
	}
}
