package editor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/metrics"
)

const (
	DefaultVerifyRetries   = 3
	DefaultVerifyBaseDelay = 200 * time.Millisecond
	maxParallelPersists    = 8
)

// Options configures a Controller
type Options struct {
	// Kind labels logs and metrics, e.g. "band" or "bandmate"
	Kind string
	// Default is the value of a date with no stored entry
	Default bool
	// VerifyRetries is how many extra fetches are made when verification fails
	VerifyRetries int
	// VerifyBaseDelay is the first backoff delay; it doubles on each retry
	VerifyBaseDelay time.Duration
	// Guard rejects toggles on dates the caller may not edit. Optional.
	Guard func(date string) error
	// Sleep waits between verification attempts. Defaults to a context-aware timer.
	Sleep      func(ctx context.Context, d time.Duration) error
	Normalizer calendar.Normalizer
	Metrics    *metrics.Metrics
}

// DefaultOptions returns options with the standard verification budget
func DefaultOptions(kind string, def bool) Options {
	return Options{
		Kind:            kind,
		Default:         def,
		VerifyRetries:   DefaultVerifyRetries,
		VerifyBaseDelay: DefaultVerifyBaseDelay,
	}
}

type dateRequest struct {
	inFlight bool
	dirty    bool
}

// Controller holds the optimistic edit state of one calendar.
//
// current and saved are immutable snapshots: every mutation installs a new map,
// so values returned by Snapshot never change underneath the caller.
type Controller struct {
	store  Store
	logger *zap.Logger
	opts   Options

	mu         sync.Mutex
	current    availability.Map
	saved      availability.Map
	submitting bool
	requests   map[string]*dateRequest
}

// NewController creates a controller whose confirmed baseline is saved
func NewController(store Store, logger *zap.Logger, saved availability.Map, opts Options) *Controller {
	if opts.VerifyRetries < 0 {
		opts.VerifyRetries = 0
	}
	if opts.VerifyBaseDelay <= 0 {
		opts.VerifyBaseDelay = DefaultVerifyBaseDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Kind == "" {
		opts.Kind = "calendar"
	}

	baseline := opts.Normalizer.NormalizeKeys(saved)
	return &Controller{
		store:    store,
		logger:   logger.With(zap.String("calendar", opts.Kind)),
		opts:     opts,
		current:  availability.Map(baseline),
		saved:    availability.Map(baseline),
		requests: make(map[string]*dateRequest),
	}
}

// Load replaces the baseline and discards unsaved edits with the store's state
func (c *Controller) Load(ctx context.Context) error {
	fetched, err := c.store.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", availability.ErrTransientFetch, err)
	}

	state := availability.Map(c.opts.Normalizer.NormalizeKeys(fetched))

	c.mu.Lock()
	c.saved = state
	c.current = state
	c.mu.Unlock()

	c.logger.Debug("Loaded calendar state", zap.Int("entries", len(state)))
	return nil
}

// Value returns the in-memory value for a date
func (c *Controller) Value(date string) bool {
	date = c.opts.Normalizer.Normalize(date)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Get(date, c.opts.Default)
}

// State reports whether a date has an edit that is not yet confirmed
func (c *Controller) State(date string) EditState {
	date = c.opts.Normalizer.Normalize(date)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.Get(date, c.opts.Default) != c.saved.Get(date, c.opts.Default) {
		return StatePending
	}
	if req := c.requests[date]; req != nil && req.inFlight {
		return StatePending
	}
	return StateSaved
}

// Snapshot returns the current and last confirmed maps. Neither is mutated afterwards.
func (c *Controller) Snapshot() (current, saved availability.Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.saved
}

// Unsaved returns the dates whose in-memory value differs from the confirmed one,
// in chronological order
func (c *Controller) Unsaved() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unsavedLocked()
}

// Toggle flips the in-memory value of a date. Nothing is sent to the store.
func (c *Controller) Toggle(date string) (Change, error) {
	date = c.opts.Normalizer.Normalize(date)
	if !calendar.IsCanonical(date) {
		return Change{}, fmt.Errorf("invalid date %q", date)
	}
	if c.opts.Guard != nil {
		if err := c.opts.Guard(date); err != nil {
			return Change{}, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggleLocked(date), nil
}

// Rebase adopts state fetched elsewhere (e.g. by a refresh) as the confirmed
// baseline. Unsaved edits are kept on top of it.
func (c *Controller) Rebase(state availability.Map) {
	normalized := availability.Map(c.opts.Normalizer.NormalizeKeys(state))

	c.mu.Lock()
	defer c.mu.Unlock()

	next := normalized.Clone()
	for _, ch := range c.unsavedLocked() {
		next[ch.Date] = ch.Value
	}
	c.saved = normalized
	c.current = next
}

// Submit persists every unsaved change in parallel and then verifies them by
// reading the store back. The unsaved set is cleared only after verification.
func (c *Controller) Submit(ctx context.Context) Result {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return Result{Outcome: OutcomePending}
	}
	changes := c.unsavedLocked()
	if len(changes) == 0 {
		c.mu.Unlock()
		return Result{Outcome: OutcomeConfirmed}
	}
	c.submitting = true
	base := c.current
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	c.logger.Info("Submitting availability changes", zap.Int("changes", len(changes)))

	if err := c.persistAll(ctx, changes); err != nil {
		c.logger.Error("Failed to persist availability changes", zap.Error(err))
		c.opts.Metrics.ObserveSubmission(c.opts.Kind, OutcomeFailed.String())
		return Result{Outcome: OutcomeFailed, Changes: changes, Err: err}
	}

	verified, attempts, err := c.verify(ctx, changes)
	if err != nil {
		c.logger.Warn("Availability changes not confirmed",
			zap.Int("attempts", attempts),
			zap.Error(err))
		c.opts.Metrics.ObserveSubmission(c.opts.Kind, OutcomeUnconfirmed.String())
		return Result{Outcome: OutcomeUnconfirmed, Changes: changes, Attempts: attempts, Err: err}
	}

	c.mu.Lock()
	c.adoptLocked(verified, base)
	c.mu.Unlock()

	c.logger.Info("Availability changes confirmed",
		zap.Int("changes", len(changes)),
		zap.Int("attempts", attempts))
	c.opts.Metrics.ObserveSubmission(c.opts.Kind, OutcomeConfirmed.String())
	c.opts.Metrics.ObserveVerification(c.opts.Kind, attempts)

	return Result{Outcome: OutcomeConfirmed, Changes: changes, Attempts: attempts}
}

// ToggleNow flips a date and immediately persists it. Requests for the same date
// are serialized: a toggle made while the previous request is in flight returns
// OutcomePending and its value is sent once that request finishes. A failed write
// reverts the date unless the user has toggled it again since.
func (c *Controller) ToggleNow(ctx context.Context, date string) Result {
	date = c.opts.Normalizer.Normalize(date)
	if !calendar.IsCanonical(date) {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("invalid date %q", date)}
	}
	if c.opts.Guard != nil {
		if err := c.opts.Guard(date); err != nil {
			return Result{Outcome: OutcomeFailed, Err: err}
		}
	}

	c.mu.Lock()
	change := c.toggleLocked(date)
	req := c.requests[date]
	if req == nil {
		req = &dateRequest{}
		c.requests[date] = req
	}
	if req.inFlight {
		req.dirty = true
		c.mu.Unlock()
		return Result{Outcome: OutcomePending, Changes: []Change{change}}
	}
	req.inFlight = true
	c.mu.Unlock()

	return c.flushDate(ctx, date, req)
}

func (c *Controller) flushDate(ctx context.Context, date string, req *dateRequest) Result {
	for {
		c.mu.Lock()
		value := c.current.Get(date, c.opts.Default)
		req.dirty = false
		c.mu.Unlock()

		err := c.store.Persist(ctx, date, value)

		c.mu.Lock()
		if err != nil {
			if req.dirty {
				// A newer toggle arrived while this one was failing; send it
				c.mu.Unlock()
				c.logger.Warn("Failed to persist date, sending newer value", zap.String("date", date), zap.Error(err))
				continue
			}
			c.current = withValue(c.current, date, c.saved.Get(date, c.opts.Default))
			req.inFlight = false
			c.mu.Unlock()

			c.logger.Error("Failed to persist date", zap.String("date", date), zap.Error(err))
			c.opts.Metrics.ObserveSubmission(c.opts.Kind, OutcomeFailed.String())
			return Result{
				Outcome: OutcomeFailed,
				Changes: []Change{{Date: date, Value: value}},
				Err:     fmt.Errorf("%w: %s: %w", availability.ErrPersist, date, err),
			}
		}

		c.saved = withValue(c.saved, date, value)
		if req.dirty && c.current.Get(date, c.opts.Default) != value {
			c.mu.Unlock()
			continue
		}
		req.inFlight = false
		c.mu.Unlock()

		c.opts.Metrics.ObserveSubmission(c.opts.Kind, OutcomeConfirmed.String())
		return Result{Outcome: OutcomeConfirmed, Changes: []Change{{Date: date, Value: value}}}
	}
}

func (c *Controller) persistAll(ctx context.Context, changes []Change) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxParallelPersists)

	for _, ch := range changes {
		ch := ch
		g.Go(func() error {
			if err := c.store.Persist(ctx, ch.Date, ch.Value); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", ch.Date, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", availability.ErrPersist, errors.Join(errs...))
	}
	return nil
}

// verify fetches the store until every submitted pair is present with the
// submitted value, retrying with exponential backoff
func (c *Controller) verify(ctx context.Context, changes []Change) (availability.Map, int, error) {
	delay := c.opts.VerifyBaseDelay
	var lastErr error

	attempts := 0
	for attempt := 0; attempt <= c.opts.VerifyRetries; attempt++ {
		if attempt > 0 {
			if err := c.opts.Sleep(ctx, delay); err != nil {
				return nil, attempts, fmt.Errorf("%w: %w", availability.ErrVerificationTimeout, err)
			}
			delay *= 2
		}

		attempts++
		fetched, err := c.store.Fetch(ctx)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", availability.ErrTransientFetch, err)
			c.logger.Debug("Verification fetch failed", zap.Int("attempt", attempts), zap.Error(err))
			continue
		}

		state := availability.Map(c.opts.Normalizer.NormalizeKeys(fetched))
		mismatch := firstMismatch(state, changes)
		if mismatch == "" {
			return state, attempts, nil
		}
		lastErr = fmt.Errorf("date %s not confirmed", mismatch)
		c.logger.Debug("Verification mismatch", zap.Int("attempt", attempts), zap.String("date", mismatch))
	}

	return nil, attempts, fmt.Errorf("%w after %d attempts: %w", availability.ErrVerificationTimeout, attempts, lastErr)
}

// adoptLocked installs verified server state as the baseline. Dates the user
// changed after the submission started keep their newer in-memory value.
func (c *Controller) adoptLocked(verified, base availability.Map) {
	next := verified.Clone()
	for _, d := range unionDates(c.current, base) {
		now := c.current.Get(d, c.opts.Default)
		if now != base.Get(d, c.opts.Default) {
			next[d] = now
		}
	}
	c.saved = verified
	c.current = next
}

func (c *Controller) toggleLocked(date string) Change {
	value := !c.current.Get(date, c.opts.Default)
	c.current = withValue(c.current, date, value)
	return Change{Date: date, Value: value}
}

func (c *Controller) unsavedLocked() []Change {
	var changes []Change
	for _, d := range unionDates(c.current, c.saved) {
		v := c.current.Get(d, c.opts.Default)
		if v != c.saved.Get(d, c.opts.Default) {
			changes = append(changes, Change{Date: d, Value: v})
		}
	}
	return changes
}

func firstMismatch(state availability.Map, changes []Change) string {
	for _, ch := range changes {
		v, ok := state[ch.Date]
		if !ok || v != ch.Value {
			return ch.Date
		}
	}
	return ""
}

func withValue(m availability.Map, date string, value bool) availability.Map {
	next := m.Clone()
	next[date] = value
	return next
}

func unionDates(a, b availability.Map) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for d := range a {
		seen[d] = struct{}{}
	}
	for d := range b {
		seen[d] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
