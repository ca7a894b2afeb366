package refresher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/metrics"
)

const (
	DefaultInterval   = 45 * time.Second
	DefaultStaleAfter = 60 * time.Second
)

// FetchFunc loads the latest final availability
type FetchFunc func(ctx context.Context) (availability.FinalAvailability, error)

// Options configures a Refresher
type Options struct {
	Interval   time.Duration
	StaleAfter time.Duration
	// OnUpdate receives every applied result
	OnUpdate  func(availability.FinalAvailability)
	Scheduler Scheduler
	Now       func() time.Time
	Metrics   *metrics.Metrics
}

// Refresher periodically re-fetches availability while its view is visible.
// At most one fetch is in flight; triggers that arrive meanwhile are dropped.
type Refresher struct {
	fetch  FetchFunc
	logger *zap.Logger
	opts   Options

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	visible     bool
	inFlight    bool
	generation  uint64
	lastSuccess time.Time
	latest      availability.FinalAvailability
	hasLatest   bool
}

// New creates a refresher for a visible view. Call Start to begin polling.
func New(fetch FetchFunc, logger *zap.Logger, opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewCronScheduler()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Refresher{
		fetch:   fetch,
		logger:  logger,
		opts:    opts,
		visible: true,
	}
}

// Start binds the refresher to ctx and schedules polling. Cancelling ctx or
// calling Stop ends it.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.logger.Debug("Starting availability polling", zap.Duration("interval", r.opts.Interval))
	r.opts.Scheduler.Start(r.opts.Interval, r.Tick)
}

// Stop cancels any in-flight fetch and then the schedule. A fetch that resolves
// after Stop is discarded. Stop does not wait for a running tick, so it is safe
// to call from OnUpdate.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.generation++
	r.mu.Unlock()

	r.opts.Scheduler.Stop()

	r.logger.Debug("Stopped availability polling")
}

// Tick is one scheduled poll. It does nothing while the view is hidden and
// never returns an error: a failed tick is retried on the next one.
func (r *Refresher) Tick() {
	r.mu.Lock()
	visible := r.visible
	r.mu.Unlock()

	if !visible {
		r.opts.Metrics.ObserveRefresh("hidden", 0)
		return
	}

	if _, err := r.Refresh(r.context()); err != nil {
		r.logger.Warn("Availability refresh failed", zap.Error(err))
	}
}

// SetVisible records a visibility change. Becoming visible with data older than
// StaleAfter triggers an immediate refresh; it reports whether one ran.
func (r *Refresher) SetVisible(visible bool) bool {
	r.mu.Lock()
	wasHidden := !r.visible
	r.visible = visible
	stale := r.lastSuccess.IsZero() || r.opts.Now().Sub(r.lastSuccess) > r.opts.StaleAfter
	r.mu.Unlock()

	if !visible || !wasHidden || !stale {
		return false
	}

	r.logger.Debug("View visible with stale data, refreshing")
	if _, err := r.Refresh(r.context()); err != nil {
		r.logger.Warn("Catch-up refresh failed", zap.Error(err))
	}
	return true
}

// Invalidate discards the response of any fetch currently in flight. Use it
// after adopting newer state from elsewhere, such as a verified submission.
func (r *Refresher) Invalidate() {
	r.mu.Lock()
	r.generation++
	r.mu.Unlock()
}

// Refresh fetches and applies the latest availability. It reports false without
// error when another refresh is already in flight or the response became stale.
// A refresh stays in flight until OnUpdate returns, so deliveries never overlap
// and never arrive out of order.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		r.opts.Metrics.ObserveRefresh("dropped", 0)
		return false, nil
	}
	r.inFlight = true
	gen := r.generation
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	start := r.opts.Now()
	result, err := r.fetch(ctx)
	took := r.opts.Now().Sub(start)

	r.mu.Lock()
	if err != nil {
		r.mu.Unlock()
		r.opts.Metrics.ObserveRefresh("failed", took)
		return false, fmt.Errorf("%w: %w", availability.ErrTransientFetch, err)
	}
	if gen != r.generation {
		r.mu.Unlock()
		r.logger.Debug("Discarding stale availability response")
		r.opts.Metrics.ObserveRefresh("stale", took)
		return false, nil
	}
	r.latest = result
	r.hasLatest = true
	r.lastSuccess = r.opts.Now()
	onUpdate := r.opts.OnUpdate
	r.mu.Unlock()

	r.opts.Metrics.ObserveRefresh("applied", took)
	if result.Degraded() {
		r.logger.Warn("Availability refreshed without bandmate input", zap.String("band_id", result.BandID))
	}
	if onUpdate != nil {
		onUpdate(result)
	}
	return true, nil
}

// Latest returns the most recently applied result
func (r *Refresher) Latest() (availability.FinalAvailability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, r.hasLatest
}

// LastSuccess returns when a result was last applied
func (r *Refresher) LastSuccess() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSuccess
}

func (r *Refresher) context() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}
