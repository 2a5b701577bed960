package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/shopcrawl/logctx"
	"github.com/use-agent/shopcrawl/models"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// RequestTimeout bounds one whole aggregation run.
	RequestTimeout time.Duration // default: 10m

	// MaxSessions caps the number of runs holding a browsing session.
	MaxSessions int // default: 2

	Observer Observer
}

// Service runs one aggregation per call on a fresh browsing session.
// It is safe for concurrent use.
type Service struct {
	sessions   SessionFactory
	aggregator *Aggregator
	timeout    time.Duration
	gate       *semaphore.Weighted
	observer   Observer
}

// NewService creates a Service.
func NewService(sessions SessionFactory, aggregator *Aggregator, opts ServiceOptions) *Service {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Minute
	}
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 2
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Service{
		sessions:   sessions,
		aggregator: aggregator,
		timeout:    opts.RequestTimeout,
		gate:       semaphore.NewWeighted(int64(opts.MaxSessions)),
		observer:   opts.Observer,
	}
}

// Run aggregates categories. The browsing session is opened for this call
// only and closed on every exit path.
//
// Lifecycle:
//
//  1. Deadline        – hard bound on the entire run
//  2. Gate            – wait for a free session slot
//  3. Open session    – fresh browsing context
//  4. DEFER: close    – release the context even on extraction failure
//  5. Aggregate       – traverse every category
func (s *Service) Run(ctx context.Context, categories []string) (result *models.CatalogResult, err error) {
	log := logctx.From(ctx)
	start := time.Now()
	defer func() {
		s.observer.RunFinished(err, time.Since(start))
	}()

	// ── 1. Deadline ─────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// ── 2. Gate ─────────────────────────────────────────────────────
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeRequestTimeout,
			"waiting for a free browsing session")
	}
	defer s.gate.Release(1)

	// ── 3. Open session ─────────────────────────────────────────────
	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeBrowserCrash,
			"failed to open browsing session")
	}

	// ── 4. DEFER: close session ─────────────────────────────────────
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Warn("failed to close browsing session", "error", closeErr)
		}
	}()

	// ── 5. Aggregate ────────────────────────────────────────────────
	result, err = s.aggregator.Aggregate(ctx, sess, categories)
	if err != nil {
		log.Error("catalog aggregation failed",
			"categories", categories,
			"code", models.CodeOf(err),
			"error", err,
			"elapsed", time.Since(start).String(),
		)
		return nil, err
	}

	log.Info("catalog aggregated",
		"categories", categories,
		"brands", len(result.Brands),
		"products", len(result.ProductList),
		"elapsed", time.Since(start).String(),
	)
	return result, nil
}
