// Package crawler drives the authenticated breadth-first flag harvest: the
// login handshake, the level-by-level traversal, and the stop conditions.
package crawler

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ctfhound/flagcrawl/internal/errors"
	"github.com/ctfhound/flagcrawl/internal/logger"
	"github.com/ctfhound/flagcrawl/internal/metrics"
	"github.com/ctfhound/flagcrawl/internal/output"
	"github.com/ctfhound/flagcrawl/internal/parser"
	"github.com/ctfhound/flagcrawl/internal/ratelimit"
	"github.com/ctfhound/flagcrawl/internal/request"
	"github.com/ctfhound/flagcrawl/internal/session"
	"github.com/ctfhound/flagcrawl/internal/state"
	"github.com/ctfhound/flagcrawl/internal/transport"
)

// Crawler is the crawl engine. It exclusively owns the explored set, the
// frontier, and the flag set; the session state is shared with the request
// builder but mutated only when tokens are extracted during the handshake.
type Crawler struct {
	config     *Config
	conn       Conn
	builder    *request.Builder
	sess       *session.State
	state      *state.Manager
	store      state.Store
	limiter    *ratelimit.Limiter
	retrier    *errors.Retrier
	metrics    *metrics.Collector
	writer     output.Writer
	outputDest io.Writer
	logger     *logger.Logger

	phase     Phase
	resume    bool
	startTime time.Time
}

// New creates a new crawler with the given options.
func New(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		config: DefaultConfig(),
		phase:  Unauthenticated,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.logger == nil {
		logLevel := logger.InfoLevel
		if c.config.Debug {
			logLevel = logger.DebugLevel
		} else if !c.config.Verbose {
			logLevel = logger.WarnLevel
		}
		c.logger = logger.New(logger.Config{
			Level:     logLevel,
			Pretty:    true,
			Component: "engine",
		})
	}

	if c.metrics == nil {
		c.metrics = metrics.New()
	}

	c.builder = request.New(c.config.Server)
	if c.config.UserAgent != "" {
		c.builder.SetUserAgent(c.config.UserAgent)
	}

	c.sess = session.New(c.config.Username, c.config.Password)
	c.state = state.NewManager(c.config.EstimatedURLs, c.config.Quota)
	c.limiter = ratelimit.NewLimiter(c.config.RateLimit.RequestsPerSecond, c.config.RateLimit.Burst)
	c.retrier = errors.NewRetrier(errors.RetryConfig{
		MaxRetries: c.config.Retry.MaxRetries,
		Delay:      c.config.Retry.Delay,
	})

	if c.outputDest == nil {
		c.outputDest = os.Stdout
	}
	c.writer = output.NewWriter(c.outputDest, c.config.Output)

	if c.store == nil && c.config.StatePath != "" {
		store, err := state.NewBoltStore(c.config.StatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		c.store = store
	}

	return c, nil
}

// Phase returns the current state-machine phase.
func (c *Crawler) Phase() Phase {
	return c.phase
}

// Run executes the full crawl: dial, login handshake, frontier seeding, and
// breadth-first traversal until the quota is met or the frontier empties.
func (c *Crawler) Run(ctx context.Context) (*output.Report, error) {
	c.startTime = time.Now()

	if c.conn == nil {
		tcfg := c.config.Transport
		tcfg.Host = c.config.Server
		tcfg.Port = c.config.Port
		conn, err := transport.Dial(ctx, tcfg)
		if err != nil {
			return nil, err
		}
		c.conn = conn
		defer c.conn.Close()
	}

	if err := c.login(ctx); err != nil {
		return nil, err
	}

	c.state.SeedExplored(c.config.RootPath, c.config.LogoutPath)

	restored := false
	if c.resume && c.store != nil {
		saved, err := c.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load saved state: %w", err)
		}
		if saved != nil {
			c.state.Restore(saved)
			restored = true
			c.logger.Infof("resumed at level %d: %d explored, %d queued, %d flags",
				saved.Level, len(saved.Explored), len(saved.Frontier), len(saved.Flags))
		}
	}
	if !restored {
		if err := c.seedFrontier(ctx); err != nil {
			return nil, err
		}
	}

	c.phase = Traversing
	if err := c.traverse(ctx); err != nil {
		return nil, err
	}
	c.phase = Done

	report := c.report()
	if err := c.writer.WriteReport(report); err != nil {
		return report, err
	}
	if err := c.writer.Flush(); err != nil {
		return report, err
	}
	c.logger.StatsEvent(c.metrics.Snapshot().Fields())

	return report, nil
}

// Close releases the state store, if any. The connection is owned by Run
// unless it was injected.
func (c *Crawler) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// login performs the two-step handshake: fetch the login form to obtain the
// CSRF cookie and the hidden middleware token, then submit the credentials
// and pick up the session cookie from the redirect headers.
func (c *Crawler) login(ctx context.Context) error {
	c.phase = LoggingIn
	path := c.config.LoginPath

	header, body, err := c.roundTrip(c.builder.Get(path, c.sess))
	if err != nil {
		return err
	}
	status := parser.ExtractStatusCode(header)
	if status == parser.StatusUnknown {
		return errors.NewStatusLineError(path)
	}
	c.metrics.RecordStatusCode(status)

	tokens, err := parser.ExtractTokens(header, string(body))
	if err != nil {
		return err
	}
	c.sess.Apply(tokens)
	if c.sess.MiddlewareToken == "" {
		// Absent tokens leave prior state untouched; the form submission
		// proceeds with whatever is held.
		c.logger.Warn("login page carried no middleware token")
	}

	c.metrics.RecordRequest()
	if err := c.conn.Send(c.builder.LoginPost(path, c.config.LandingPath, c.sess)); err != nil {
		return err
	}
	header, err = c.conn.ReadHeader()
	if err != nil {
		return err
	}
	status = parser.ExtractStatusCode(header)
	if status == parser.StatusUnknown {
		return errors.NewStatusLineError(path)
	}
	c.metrics.RecordStatusCode(status)

	tokens, err = parser.ExtractTokens(header, "")
	if err != nil {
		return err
	}
	c.sess.Apply(tokens)

	c.phase = AuthenticatedIdle
	if !c.sess.Authenticated() {
		c.logger.Warn("login response issued no session cookie")
	} else {
		c.logger.Info("authenticated")
	}
	return nil
}

// seedFrontier fetches the landing page and seeds the frontier with its
// links.
func (c *Crawler) seedFrontier(ctx context.Context) error {
	landing := c.config.LandingPath

	status, body, err := c.fetch(ctx, landing)
	if err != nil {
		return err
	}
	switch status {
	case 200, 302:
	default:
		return errors.NewUnexpectedStatusError(landing, status)
	}

	c.state.MarkExplored(landing)
	links := parser.ExtractLinks(string(body), c.state.Seen)
	c.metrics.RecordLinks(len(links))
	c.state.ReplaceFrontier(links)
	c.logger.Infof("frontier seeded with %d links", len(links))
	return nil
}

// traverse runs breadth-first levels until the quota is met or a level's
// replacement frontier comes up empty. One iteration of the outer loop is
// one BFS level; the frontier is replaced wholesale at the end of each
// level, never merged mid-level.
func (c *Crawler) traverse(ctx context.Context) error {
	for c.state.FrontierLen() > 0 {
		level := c.state.Level()
		discovered := make(map[string]struct{})

		for _, u := range c.state.Frontier() {
			if ctx.Err() != nil {
				return errors.NewCancelledError(u, "traverse")
			}

			status, body, err := c.fetch(ctx, u)
			if err != nil {
				return err
			}

			switch status {
			case 403, 404:
				// Terminal pages still contribute links, but are never
				// searched for flags.
				c.state.MarkExplored(u)
				c.metrics.RecordPage()
				c.collect(string(body), discovered)

			case 200, 302:
				c.state.MarkExplored(u)
				c.metrics.RecordPage()

				fresh := c.state.AddFlags(parser.ExtractFlags(string(body)))
				for _, f := range fresh {
					c.metrics.RecordFlags(1)
					c.logger.FlagEvent(u, f)
					if err := c.writer.WriteFlag(f); err != nil {
						return err
					}
				}
				if c.state.QuotaReached() {
					c.logger.Infof("flag quota reached (%d), stopping traversal", c.config.Quota)
					return nil
				}

				c.collect(string(body), discovered)

			default:
				c.metrics.RecordError()
				return errors.NewUnexpectedStatusError(u, status)
			}
		}

		next := make([]string, 0, len(discovered))
		for u := range discovered {
			next = append(next, u)
		}
		c.state.ReplaceFrontier(next)
		c.logger.WithCrawlLevel(level + 1).Debugf("frontier replaced with %d URLs", len(next))

		if c.store != nil {
			if err := c.store.Save(c.state.Snapshot(c.config.Server)); err != nil {
				c.logger.WithError(err).Warn("failed to persist crawl state")
			}
		}
	}
	return nil
}

// collect extracts links from a page into the next level's discovered set,
// excluding anything explored, queued, or already discovered this level.
func (c *Crawler) collect(html string, discovered map[string]struct{}) {
	links := parser.ExtractLinks(html, func(u string) bool {
		if _, ok := discovered[u]; ok {
			return true
		}
		return c.state.Seen(u)
	})
	c.metrics.RecordLinks(len(links))
	for _, l := range links {
		discovered[l] = struct{}{}
	}
}

// fetch GETs a path, resending the identical request while the server
// answers 503. The retry policy defaults to unbounded with no delay.
func (c *Crawler) fetch(ctx context.Context, path string) (int, []byte, error) {
	var (
		status int
		body   []byte
	)

	result := c.retrier.Do(ctx, "get", path, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.NewCancelledError(path, "get")
		}

		start := time.Now()
		header, b, err := c.roundTrip(c.builder.Get(path, c.sess))
		if err != nil {
			return err
		}

		s := parser.ExtractStatusCode(header)
		if s == parser.StatusUnknown {
			return errors.NewStatusLineError(path)
		}
		c.metrics.RecordStatusCode(s)
		c.logger.RequestEvent("GET", path, s, time.Since(start))

		if s == 503 {
			c.metrics.RecordRetry()
			return errors.NewOverloadedError(path)
		}

		status, body = s, b
		return nil
	})

	if !result.Success {
		return 0, nil, result.LastError
	}
	return status, body, nil
}

// roundTrip sends one request and reads one framed response.
func (c *Crawler) roundTrip(req []byte) (string, []byte, error) {
	c.metrics.RecordRequest()
	if err := c.conn.Send(req); err != nil {
		return "", nil, err
	}
	header, body, err := c.conn.ReadResponse()
	if err != nil {
		return "", nil, err
	}
	c.metrics.RecordBytes(len(header) + len(body))
	return header, body, nil
}

// report assembles the final crawl report.
func (c *Crawler) report() *output.Report {
	return &output.Report{
		Target:      fmt.Sprintf("%s:%d", c.config.Server, c.config.Port),
		StartedAt:   c.startTime,
		CompletedAt: time.Now(),
		Flags:       c.state.Flags(),
		QuotaMet:    c.state.QuotaReached(),
		Stats:       c.metrics.Snapshot(),
	}
}
