package preset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/store"
)

// rollbackTimeout bounds a rollback started after ctx was cancelled.
const rollbackTimeout = 10 * time.Second

// Controller is the part of connection.Manager a preset needs.
type Controller interface {
	Store() *store.Store
	Submit(cmd device.Command) error
}

// VerifyOptions configures how long Apply waits for values to read back.
type VerifyOptions struct {
	// MaxRetries is the number of extra checks after the first one.
	MaxRetries int
	// InitialDelay gives the device time to answer before the first check.
	InitialDelay time.Duration
	// RetryDelay doubles after every failed check up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultVerifyOptions returns the delays used when nil options are given.
func DefaultVerifyOptions() *VerifyOptions {
	return &VerifyOptions{
		MaxRetries:    4,
		InitialDelay:  300 * time.Millisecond,
		RetryDelay:    500 * time.Millisecond,
		MaxRetryDelay: 3 * time.Second,
	}
}

func (o *VerifyOptions) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.RetryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = o.MaxRetryDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.MaxRetries)), ctx)
}

// Result is the outcome of one Apply.
type Result struct {
	// Applied lists the steps whose command the device accepted.
	Applied    []Step
	Attempts   int
	Mismatches []string
	Err        error
}

// Success reports whether every step was sent and read back.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Apply sends the changed steps in order and waits until the store shows
// every wanted value. It stops at the first rejected command.
func Apply(ctx context.Context, ctl Controller, steps []Step, opts *VerifyOptions) *Result {
	if opts == nil {
		opts = DefaultVerifyOptions()
	}
	res := &Result{}

	for _, s := range steps {
		if !s.Changed() {
			continue
		}
		cmd := s.Control.Command(s.Value)
		logging.Debug("Applying setting", zap.String("setting", s.Setting.String()), zap.String("command", cmd.String()))
		if err := ctl.Submit(cmd); err != nil {
			res.Err = fmt.Errorf("%s: %w", s.Setting, err)
			return res
		}
		res.Applied = append(res.Applied, s)
	}
	if len(res.Applied) == 0 {
		return res
	}

	if err := sleep(ctx, opts.InitialDelay); err != nil {
		res.Err = err
		return res
	}

	st := ctl.Store()
	check := func() error {
		res.Attempts++
		res.Mismatches = mismatches(st, res.Applied)
		if len(res.Mismatches) > 0 {
			return fmt.Errorf("attempt %d: %s", res.Attempts, formatMismatches(res.Mismatches))
		}
		return nil
	}
	if err := backoff.Retry(check, opts.backoff(ctx)); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		res.Err = fmt.Errorf("verification failed after %d attempt(s): %w", res.Attempts, err)
	}
	return res
}

func mismatches(st *store.Store, steps []Step) []string {
	var out []string
	for _, s := range steps {
		got, _ := st.Get(s.Category, s.Key)
		if got != s.Value {
			out = append(out, fmt.Sprintf("%s.%s: expected %s, got %s", s.Category, s.Key, s.Value, orNone(got)))
		}
	}
	return out
}

func formatMismatches(m []string) string {
	if len(m) == 1 {
		return m[0]
	}
	return fmt.Sprintf("%d mismatches: %s", len(m), strings.Join(m, "; "))
}

func orNone(s string) string {
	if s == "" {
		return "nothing"
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SafeResult is the outcome of SafeApply.
type SafeResult struct {
	Preset string
	// Skipped holds settings the device could not take.
	Skipped []error
	Planned []Step

	Update            *Result
	RollbackAttempted bool
	Rollback          *Result
}

// Success reports whether the preset was applied and verified.
func (r *SafeResult) Success() bool {
	return r.Update != nil && r.Update.Success()
}

// RolledBack reports whether a failed update was undone.
func (r *SafeResult) RolledBack() bool {
	return r.RollbackAttempted && r.Rollback != nil && r.Rollback.Success()
}

func (r *SafeResult) Err() error {
	switch {
	case r.Success():
		return nil
	case !r.RollbackAttempted:
		return r.Update.Err
	case r.RolledBack():
		return fmt.Errorf("preset %s failed and was rolled back: %w", r.Preset, r.Update.Err)
	default:
		return fmt.Errorf("preset %s failed (%w) and rollback failed: %v", r.Preset, r.Update.Err, r.Rollback.Err)
	}
}

func (r *SafeResult) String() string {
	switch {
	case r.Success():
		return fmt.Sprintf("✅ Applied %s: %d setting(s) changed, verified in %d attempt(s)", r.Preset, len(r.Update.Applied), r.Update.Attempts)
	case r.RolledBack():
		return fmt.Sprintf("⚠️  %s failed but the previous settings were restored\nUpdate error: %v", r.Preset, r.Update.Err)
	case r.RollbackAttempted:
		return fmt.Sprintf("❌ %s failed and rollback failed\nUpdate error: %v\nRollback error: %v", r.Preset, r.Update.Err, r.Rollback.Err)
	default:
		return fmt.Sprintf("❌ %s failed\nError: %v", r.Preset, r.Update.Err)
	}
}

// SafeApply plans p against the current store, applies it and restores the
// previous values of every applied step if the update fails.
func SafeApply(ctx context.Context, ctl Controller, p *Preset, opts *VerifyOptions) *SafeResult {
	steps, skipped := p.Plan(ctl.Store().Snapshot())
	res := &SafeResult{Preset: p.Name, Skipped: skipped, Planned: steps}
	for _, err := range skipped {
		logging.Warn("Skipping preset setting", zap.String("preset", p.Name), zap.Error(err))
	}

	res.Update = Apply(ctx, ctl, steps, opts)
	if res.Update.Success() || len(res.Update.Applied) == 0 {
		return res
	}

	logging.Warn("Preset failed, rolling back",
		zap.String("preset", p.Name),
		zap.Int("applied", len(res.Update.Applied)),
		zap.Error(res.Update.Err),
	)
	res.RollbackAttempted = true

	undo := make([]Step, 0, len(res.Update.Applied))
	for i := len(res.Update.Applied) - 1; i >= 0; i-- {
		s := res.Update.Applied[i]
		c := s.Control
		c.Value = s.Value
		undo = append(undo, Step{Setting: s.Previous(), Control: c})
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	res.Rollback = Apply(rctx, ctl, undo, opts)
	return res
}
