// Package scheduler runs the background price drift: while at least one
// bidding view is open for a post, the quote is nudged upward at a fixed
// interval. Timers are owned here, keyed by post and reference-counted across
// views, so two open views of the same post share one timer instead of
// doubling the drift rate.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/shopspring/decimal"
)

// PriceBumper is the minimal interface the drift loop needs from the ledger.
// Declared here so the scheduler package does not import the service
// implementation and cause a circular dependency.
type PriceBumper interface {
	IncreasePrice(ctx context.Context, postID string, percent decimal.Decimal) (decimal.Decimal, error)
}

// ViewGauge is the metrics interface for tracking open views and drift ticks.
type ViewGauge interface {
	ViewOpened()
	ViewClosed()
	DriftTick()
}

// ──────────────────────────────────────────────────────────────────────────────
// Drift
// ──────────────────────────────────────────────────────────────────────────────

// driftView tracks one post's shared timer and how many views hold it open.
type driftView struct {
	refs   int
	cancel context.CancelFunc
}

// Drift manages the per-post drift timers. Call Start(ctx) once from main();
// cancelling the context stops every running timer on shutdown, including
// teardown on error paths — no recurring callback outlives its views.
type Drift struct {
	bumper   PriceBumper
	cfg      *config.Config
	logger   *slog.Logger
	gauge    ViewGauge // optional
	step     decimal.Decimal
	mu       sync.Mutex
	views    map[string]*driftView
	root     context.Context
	rootStop context.CancelFunc
}

// NewDrift creates a Drift manager.
func NewDrift(bumper PriceBumper, cfg *config.Config, logger *slog.Logger) *Drift {
	return &Drift{
		bumper: bumper,
		cfg:    cfg,
		logger: logger,
		step:   decimal.NewFromFloat(cfg.Drift.StepPercent),
		views:  make(map[string]*driftView),
	}
}

// SetGauge injects the metrics registry post-construction.
func (d *Drift) SetGauge(g ViewGauge) { d.gauge = g }

// Start binds the manager to its root context. Must be called before Open.
func (d *Drift) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root, d.rootStop = context.WithCancel(ctx)
	d.logger.Info("drift manager started",
		"interval", d.cfg.Drift.Interval, "step_percent", d.cfg.Drift.StepPercent)
}

// Stop cancels every running timer.
func (d *Drift) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rootStop != nil {
		d.rootStop()
	}
	d.views = make(map[string]*driftView)
}

// Open registers one more open bidding view for the post. The first view
// starts the shared timer; later views only bump the reference count.
func (d *Drift) Open(postID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.root == nil || d.root.Err() != nil {
		d.logger.Warn("drift manager not running, view ignored", "post_id", postID)
		return
	}

	if v, ok := d.views[postID]; ok {
		v.refs++
		return
	}

	ctx, cancel := context.WithCancel(d.root)
	d.views[postID] = &driftView{refs: 1, cancel: cancel}
	if d.gauge != nil {
		d.gauge.ViewOpened()
	}
	go d.loop(ctx, postID)
}

// Close unregisters one view. The timer stops only when the last view closes;
// closing a post with no open view is a no-op.
func (d *Drift) Close(postID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.views[postID]
	if !ok {
		return
	}
	v.refs--
	if v.refs > 0 {
		return
	}
	v.cancel()
	delete(d.views, postID)
	if d.gauge != nil {
		d.gauge.ViewClosed()
	}
}

// OpenViews returns the number of posts with a running drift timer.
func (d *Drift) OpenViews() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.views)
}

// ──────────────────────────────────────────────────────────────────────────────
// Timer loop
// ──────────────────────────────────────────────────────────────────────────────

// loop bumps the post price every interval until the view context is cancelled.
func (d *Drift) loop(ctx context.Context, postID string) {
	defer d.recoverAndLog(postID)

	ticker := time.NewTicker(d.cfg.Drift.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price, err := d.bumper.IncreasePrice(ctx, postID, d.step)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				d.logger.Error("drift tick failed", "post_id", postID, "err", err)
				continue
			}
			if d.gauge != nil {
				d.gauge.DriftTick()
			}
			d.logger.Debug("price drifted", "post_id", postID, "price", price)
		}
	}
}

// recoverAndLog is deferred inside each timer goroutine to catch unexpected
// panics, log them, and let the remaining timers keep running.
func (d *Drift) recoverAndLog(postID string) {
	if r := recover(); r != nil {
		d.logger.Error("PANIC recovered in drift loop", "post_id", postID, "panic", r)
	}
}
