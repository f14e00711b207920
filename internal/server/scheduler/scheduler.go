// Package scheduler runs the dissolution timer loop: it scans archived
// entities approaching their deadline, maintains the candidate queue and
// applies operator decisions (approve, postpone, prevent).
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/zhenzou/executors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/lorekeep/lorekeep/internal/authz"
	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/lifecycle"
	"github.com/lorekeep/lorekeep/internal/log"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

type Config struct {
	CRON string `json:"cron" yaml:"cron" conf:"cron" validate:"required"`
	// Lookahead bounds how far ahead of the deadline a candidate is surfaced.
	Lookahead time.Duration `json:"lookahead" yaml:"lookahead" conf:"lookahead"`
	// MaxConcurrent bounds the per-tick worker pool.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" conf:"max_concurrent"`
}

func DefaultConfig() Config {
	return Config{
		CRON:          "0 0 * * * *",
		Lookahead:     7 * 24 * time.Hour,
		MaxConcurrent: 8,
	}
}

// Worker drives dissolution scanning on a cron schedule.
type Worker struct {
	Machine  *lifecycle.Machine
	Store    store.Store
	Executor executors.ScheduledExecutor
	Config   Config

	CancelFunc context.CancelFunc
	queue      *queue
}

type Params struct {
	fx.In

	Config  Config
	Machine *lifecycle.Machine
	Store   store.Store
}

func NewWorker(params Params) *Worker {
	return &Worker{
		Machine:  params.Machine,
		Store:    params.Store,
		Executor: executors.NewPoolScheduleExecutor(executors.WithMaxConcurrent(1)),
		Config:   params.Config,
		queue:    newQueue(),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	cancelFunc, err := w.Executor.ScheduleFuncAtCronRate(
		w.runScanWithSystemContext,
		executors.CRONRule{Expr: w.Config.CRON},
	)
	if err != nil {
		return err
	}

	w.CancelFunc = cancelFunc

	log.Info(ctx, "dissolution scheduler started",
		log.String("cron", w.Config.CRON),
		log.Duration("lookahead", w.Config.Lookahead),
	)

	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.CancelFunc != nil {
		w.CancelFunc()
	}

	return w.Executor.Shutdown(ctx)
}

// Queue returns the current dissolution candidates, deadline ascending.
func (w *Worker) Queue() []entity.DissolutionCandidate {
	return w.queue.Snapshot()
}

// runScan is one scheduler tick. It only runs under the system principal;
// a failure on one entity never aborts the batch, errors are collected and
// reported together.
func (w *Worker) runScan(ctx context.Context) error {
	if err := authz.RequireSystemPrincipal(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	cutoff := now.Add(w.Config.Lookahead)

	due, err := w.Store.ListDueForDissolution(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("scan due entities: %w", err)
	}

	var group errgroup.Group

	limit := w.Config.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	group.SetLimit(limit)

	resultCh := make(chan error, len(due))
	keep := make(map[queueKey]struct{}, len(due))

	for _, e := range due {
		keep[queueKey{tenantID: e.TenantID, uid: e.UID}] = struct{}{}

		group.Go(func() error {
			if err := w.scoreCandidate(now, e); err != nil {
				resultCh <- fmt.Errorf("entity %s: %w", e.UID, err)
			}

			return nil
		})
	}

	_ = group.Wait()

	// The queue is derived state; anything no longer due fell out of the
	// queue as well.
	w.queue.PruneExcept(keep)
	close(resultCh)

	var result *multierror.Error
	for err := range resultCh {
		result = multierror.Append(result, err)
	}

	log.Info(ctx, "dissolution scan completed",
		log.Int("due", len(due)),
		log.Int("queued", w.queue.Len()),
		log.Int("errors", len(result.WrappedErrors())),
	)

	return result.ErrorOrNil()
}

// scoreCandidate computes urgency and upserts the queue entry. The queue is
// derived state; a crash between entities loses nothing the next tick will
// not recompute.
func (w *Worker) scoreCandidate(now time.Time, e *entity.Entity) error {
	if e.Lifecycle.DissolveAt == nil {
		return fmt.Errorf("archived entity %s has no dissolve deadline", e.UID)
	}

	deadline := e.Lifecycle.DissolveAt.UTC()
	remaining := deadline.Sub(now)

	w.queue.Upsert(entity.DissolutionCandidate{
		UID:          e.UID,
		TenantID:     e.TenantID,
		ScheduledFor: deadline,
		Remaining:    remaining,
		Urgency:      w.urgency(remaining, e.Sensitivity.Level),
		Reason:       fmt.Sprintf("retention window for %s content elapsed", e.Sensitivity.Level),
	})

	return nil
}

// urgency scores a candidate: urgent once the deadline passed, warning
// within the last quarter of the retention window, normal otherwise.
func (w *Worker) urgency(remaining time.Duration, level entity.Level) entity.Urgency {
	if remaining <= 0 {
		return entity.UrgencyUrgent
	}

	if remaining <= w.Machine.Config().Retention.Window(level)/4 {
		return entity.UrgencyWarning
	}

	return entity.UrgencyNormal
}

// Approve transitions the entity to dissolved and removes it from the
// queue. The underlying write is conditional, so two concurrent approvals
// resolve to exactly one dissolution.
func (w *Worker) Approve(ctx context.Context, tctx tenant.Context, uid string) (*entity.Entity, error) {
	e, err := w.Machine.Transition(ctx, tctx, uid, entity.StateDissolved, "dissolution approved")
	if err != nil {
		return nil, err
	}

	w.queue.Remove(tctx.TenantID(), uid)

	return e, nil
}

// Postpone shifts the deadline by the signed number of days and re-scores
// the candidate.
func (w *Worker) Postpone(ctx context.Context, tctx tenant.Context, uid string, days int) (*entity.Entity, error) {
	e, err := w.Machine.Postpone(ctx, tctx, uid, days)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if e.Lifecycle.DissolveAt != nil && e.Lifecycle.DissolveAt.Before(now.Add(w.Config.Lookahead)) {
		if err := w.scoreCandidate(now, e); err != nil {
			return nil, err
		}
	} else {
		w.queue.Remove(tctx.TenantID(), uid)
	}

	return e, nil
}

// Prevent sets the dissolve override, records the reason and removes the
// candidate from the active queue.
func (w *Worker) Prevent(ctx context.Context, tctx tenant.Context, uid, reason string) (*entity.Entity, error) {
	e, err := w.Machine.SetPreventDissolve(ctx, tctx, uid, true, reason)
	if err != nil {
		return nil, err
	}

	w.queue.Remove(tctx.TenantID(), uid)

	return e, nil
}

// RunScanNow manually triggers one scan tick, for operators and tests.
func (w *Worker) RunScanNow(ctx context.Context) error {
	return authz.RunWithSystemBypass(ctx, "scheduler:manual-scan", w.runScan)
}
