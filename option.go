package pharos

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/pharos-watch/pharos/middleware"
	"github.com/pharos-watch/pharos/retry"
)

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the client's configuration wholesale.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithPollInterval sets the default poll interval for engines the client
// creates. Zero means randomized sub-second backoff.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.cfg.PollInterval = d
	}
}

// WithStopTimeout sets how long Shutdown waits per engine.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.cfg.StopTimeout = d
	}
}

// WithLogger sets the client logger, propagated to the node binding and to
// every engine. The default logger is disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRetry sets the retry strategy for filter installation calls. Fetches
// inside the poll loop are never retried.
func WithRetry(s retry.Strategy) Option {
	return func(c *Client) {
		c.retry = s
	}
}

// WithMiddleware adds middleware to the dispatch pipeline wrapped around
// handlers passed to WatchEvent, ReplayEvent, and WatchMessages.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Client) {
		c.mws = append(c.mws, mws...)
	}
}
