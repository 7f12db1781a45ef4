// Package checker coordinates one fact-check at a time: resolve the
// source text, consult the result cache, drive a streaming session,
// classify and persist the outcome. It is the seam between the host
// surface and the stream, cache, store and search packages.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/factlens/factlens/internal/cache"
	"github.com/factlens/factlens/internal/store"
	"github.com/factlens/factlens/internal/stream"
	"github.com/factlens/factlens/internal/telemetry"
	"github.com/factlens/factlens/internal/transcript"
	"github.com/factlens/factlens/internal/verdict"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMinCacheable = 200
)

// Config tunes a Checker. Zero values fall back to the defaults above.
type Config struct {
	// SessionTimeout bounds one full streaming run, source acquisition
	// included.
	SessionTimeout time.Duration
	// MinCacheableLength is the shortest result text worth caching;
	// shorter results are treated as degenerate and recomputed next time.
	MinCacheableLength int
}

// Runner abstracts the streaming session so tests can script exchanges.
// *stream.Session satisfies it.
type Runner interface {
	Run(ctx context.Context, credential, sourceText, instructions string, onPartial stream.PartialFunc) (string, error)
}

// History records completed checks durably. *store.Store satisfies it.
type History interface {
	RecordCheck(ctx context.Context, rec store.CheckRecord) error
}

// Indexer makes completed analyses searchable.
type Indexer interface {
	IndexResult(ctx context.Context, contentKey, resultText string, status verdict.Verdict, createdAt time.Time) error
}

// Request is one fact-check invocation.
type Request struct {
	// Key identifies the content being checked; it is the cache and
	// history key.
	Key string
	// Credential is the backend API key for this run.
	Credential string
	// Source resolves the text to analyze.
	Source transcript.SourceProvider
	// Instructions overrides DefaultInstructions when non-empty.
	Instructions string
	// OnUpdate receives each accumulated partial and the final result.
	// Called from the streaming goroutine; must not block for long.
	OnUpdate func(Update)
}

// Update is one progress notification. Text grows monotonically across a
// run; exactly one Final update ends a successful check.
type Update struct {
	Text      string          `json:"text"`
	Status    verdict.Verdict `json:"status"`
	Final     bool            `json:"final"`
	FromCache bool            `json:"from_cache"`
}

// Checker runs at most one check at a time. A second concurrent Check
// returns ErrBusy rather than queueing.
type Checker struct {
	cfg     Config
	runner  Runner
	results *cache.Cache
	history History
	index   Indexer
	logger  *log.Logger

	mu         sync.Mutex
	inProgress bool
	cancelRun  context.CancelFunc

	cancelled atomic.Bool
}

// New builds a Checker. history and index are optional; nil disables the
// corresponding side effect.
func New(cfg Config, runner Runner, results *cache.Cache, history History, index Indexer, logger *log.Logger) *Checker {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = defaultTimeout
	}
	if cfg.MinCacheableLength <= 0 {
		cfg.MinCacheableLength = defaultMinCacheable
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CHECK] ", log.LstdFlags)
	}
	return &Checker{
		cfg:     cfg,
		runner:  runner,
		results: results,
		history: history,
		index:   index,
		logger:  logger,
	}
}

// InProgress reports whether a check is currently running.
func (c *Checker) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

// Cancel stops the in-flight run, if any. The run's OnUpdate goes quiet
// immediately and its Check call returns ErrCancelled. Safe to call when
// idle.
func (c *Checker) Cancel() {
	c.cancelled.Store(true)
	c.mu.Lock()
	cancel := c.cancelRun
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Check runs one fact-check to completion. A cached result is delivered
// through OnUpdate as a single final update without opening a session.
// Otherwise the source text is acquired, streamed for analysis under the
// session timeout, classified, and cached when long enough. The error
// taxonomy is ErrBusy, ErrEmptyInput, ErrTimeout, ErrCancelled,
// stream.ErrInterrupted and *stream.TransportError.
func (c *Checker) Check(ctx context.Context, req Request) error {
	if req.Key == "" {
		return fmt.Errorf("check: empty content key")
	}
	if req.Source == nil {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.inProgress {
		c.mu.Unlock()
		return ErrBusy
	}
	c.inProgress = true
	c.mu.Unlock()
	c.cancelled.Store(false)

	defer func() {
		c.mu.Lock()
		c.inProgress = false
		c.cancelRun = nil
		c.mu.Unlock()
	}()

	emit := func(u Update) {
		if c.cancelled.Load() || req.OnUpdate == nil {
			return
		}
		req.OnUpdate(u)
	}

	if e, ok := c.results.Get(ctx, req.Key); ok {
		c.logger.Printf("cache hit for %q (%s)", req.Key, e.Status)
		emit(Update{Text: e.ResultText, Status: e.Status, Final: true, FromCache: true})
		if c.history != nil {
			rec := store.CheckRecord{
				ContentKey: req.Key,
				ResultText: e.ResultText,
				Status:     e.Status,
				FromCache:  true,
			}
			if err := c.history.RecordCheck(ctx, rec); err != nil {
				c.logger.Printf("recording cached check for %q failed: %v", req.Key, err)
			}
		}
		return nil
	}

	if req.Credential == "" {
		return ErrNoCredential
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.SessionTimeout)
	defer cancel()
	c.mu.Lock()
	c.cancelRun = cancel
	c.mu.Unlock()

	sourceText, err := req.Source.SourceText(runCtx)
	if err != nil {
		// Slow transcript polling counts against the session deadline,
		// so a deadline hit here is the same timeout as one mid-stream.
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			telemetry.SessionsTotal.WithLabelValues("timeout").Inc()
			c.logger.Printf("source acquisition for %q timed out after %s", req.Key, c.cfg.SessionTimeout)
			return ErrTimeout
		case errors.Is(err, context.Canceled):
			telemetry.SessionsTotal.WithLabelValues("cancelled").Inc()
			return ErrCancelled
		}
		return fmt.Errorf("acquire source text: %w", err)
	}
	if strings.TrimSpace(sourceText) == "" {
		telemetry.SessionsTotal.WithLabelValues("empty_input").Inc()
		return ErrEmptyInput
	}

	instructions := req.Instructions
	if instructions == "" {
		instructions = DefaultInstructions
	}

	start := time.Now()
	result, err := c.runner.Run(runCtx, req.Credential, sourceText, instructions, func(text string, final bool) {
		telemetry.PartialUpdatesTotal.Inc()
		emit(Update{Text: text, Status: verdict.Classify(text), Final: final})
	})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			telemetry.SessionsTotal.WithLabelValues("timeout").Inc()
			c.logger.Printf("session for %q timed out after %s", req.Key, c.cfg.SessionTimeout)
			return ErrTimeout
		case errors.Is(err, context.Canceled):
			telemetry.SessionsTotal.WithLabelValues("cancelled").Inc()
			return ErrCancelled
		case errors.Is(err, stream.ErrInterrupted):
			telemetry.SessionsTotal.WithLabelValues("interrupted").Inc()
			return err
		default:
			telemetry.SessionsTotal.WithLabelValues("transport_error").Inc()
			return fmt.Errorf("streaming session: %w", err)
		}
	}

	// A cancel that raced the backend's final frame still counts as
	// cancelled: nothing is cached or recorded.
	if c.cancelled.Load() {
		telemetry.SessionsTotal.WithLabelValues("cancelled").Inc()
		return ErrCancelled
	}

	status := verdict.Classify(result)
	telemetry.SessionsTotal.WithLabelValues("completed").Inc()
	telemetry.VerdictsTotal.WithLabelValues(string(status)).Inc()

	if len(result) >= c.cfg.MinCacheableLength {
		c.results.Put(ctx, req.Key, result, status)
	} else {
		c.logger.Printf("result for %q too short to cache (%d chars)", req.Key, len(result))
	}

	// History and search failures are soft: the caller already has the
	// result in hand.
	if c.history != nil {
		rec := store.CheckRecord{
			ContentKey: req.Key,
			ResultText: result,
			Status:     status,
			DurationMS: int(time.Since(start).Milliseconds()),
		}
		if err := c.history.RecordCheck(ctx, rec); err != nil {
			c.logger.Printf("recording check for %q failed: %v", req.Key, err)
		}
	}
	if c.index != nil {
		if err := c.index.IndexResult(ctx, req.Key, result, status, time.Now().UTC()); err != nil {
			c.logger.Printf("indexing check for %q failed: %v", req.Key, err)
		}
	}
	return nil
}
