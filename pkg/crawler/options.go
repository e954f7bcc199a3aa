package crawler

import (
	"io"

	"github.com/ctfhound/flagcrawl/internal/logger"
	"github.com/ctfhound/flagcrawl/internal/metrics"
	"github.com/ctfhound/flagcrawl/internal/state"
)

// Option is a functional option for configuring the Crawler.
type Option func(*Crawler) error

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(c *Crawler) error {
		c.config = config
		return nil
	}
}

// WithTarget sets the target server and port.
func WithTarget(server string, port int) Option {
	return func(c *Crawler) error {
		c.config.Server = server
		if port > 0 {
			c.config.Port = port
		}
		return nil
	}
}

// WithCredentials sets the login credentials.
func WithCredentials(username, password string) Option {
	return func(c *Crawler) error {
		c.config.Username = username
		c.config.Password = password
		return nil
	}
}

// WithQuota sets the flag quota that stops traversal.
func WithQuota(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.Quota = n
		return nil
	}
}

// WithConn injects a transport connection, bypassing the dial. Used by tests
// and by callers that manage the connection themselves.
func WithConn(conn Conn) Option {
	return func(c *Crawler) error {
		c.conn = conn
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) error {
		c.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Crawler) error {
		c.metrics = m
		return nil
	}
}

// WithOutput sets the output destination.
func WithOutput(w io.Writer) Option {
	return func(c *Crawler) error {
		c.outputDest = w
		return nil
	}
}

// WithStateStore injects a state store for persistence, overriding the
// StatePath-derived bbolt store.
func WithStateStore(s state.Store) Option {
	return func(c *Crawler) error {
		c.store = s
		return nil
	}
}

// WithResume makes Run restore a previously saved crawl state after
// re-authenticating, instead of seeding a fresh frontier.
func WithResume(resume bool) Option {
	return func(c *Crawler) error {
		c.resume = resume
		return nil
	}
}

// WithRateLimit sets the politeness limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Crawler) error {
		c.config.RateLimit.RequestsPerSecond = rps
		c.config.RateLimit.Burst = burst
		return nil
	}
}
