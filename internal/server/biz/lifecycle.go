package biz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/lifecycle"
	"github.com/lorekeep/lorekeep/internal/objects"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/scopes"
	"github.com/lorekeep/lorekeep/internal/server/scheduler"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

type LifecycleServiceParams struct {
	fx.In

	Store     store.Store
	Machine   *lifecycle.Machine
	Scheduler *scheduler.Worker
	Evaluator *privacy.Evaluator
}

func NewLifecycleService(params LifecycleServiceParams) *LifecycleService {
	return &LifecycleService{
		store:     params.Store,
		machine:   params.Machine,
		scheduler: params.Scheduler,
		evaluator: params.Evaluator,
	}
}

// LifecycleService is the request-facing surface over the state machine and
// the dissolution scheduler. Mutations retry lost concurrency races with
// bounded backoff; authorization and transition failures surface unchanged.
type LifecycleService struct {
	store     store.Store
	machine   *lifecycle.Machine
	scheduler *scheduler.Worker
	evaluator *privacy.Evaluator
}

func (s *LifecycleService) requireRead(tctx tenant.Context) error {
	if !s.evaluator.CanPerform(tctx, scopes.ScopeLifecycleRead) {
		return fmt.Errorf("%w: roles %v do not grant %s",
			entity.ErrAuthorizationDenied, tctx.Roles(), scopes.ScopeLifecycleRead)
	}

	return nil
}

// Stats aggregates the tenant's lifecycle counters. Entities in an active
// state count as stale when the last human review predates the configured
// review window.
func (s *LifecycleService) Stats(ctx context.Context, tctx tenant.Context) (objects.LifecycleStats, error) {
	if err := s.requireRead(tctx); err != nil {
		return objects.LifecycleStats{}, err
	}

	cutoff := time.Now().UTC().Add(-s.machine.Config().ReviewWindow)

	stats, err := s.store.Stats(ctx, tctx.TenantID(), cutoff)
	if err != nil {
		return objects.LifecycleStats{}, err
	}

	return objects.LifecycleStats{
		Active:    stats.Active,
		Stale:     stats.Stale,
		Archived:  stats.Archived,
		Dissolved: stats.Dissolved,
		Total:     stats.Total,
	}, nil
}

// ListEntities returns all of the tenant's entities without content.
func (s *LifecycleService) ListEntities(ctx context.Context, tctx tenant.Context) ([]objects.EntitySummary, error) {
	if err := s.requireRead(tctx); err != nil {
		return nil, err
	}

	es, err := s.store.List(ctx, tctx.TenantID())
	if err != nil {
		return nil, err
	}

	return objects.SummarizeEntities(es), nil
}

// StateHistory returns an entity's transition records, oldest first.
func (s *LifecycleService) StateHistory(ctx context.Context, tctx tenant.Context, uid string) ([]entity.TransitionRecord, error) {
	if err := s.requireRead(tctx); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, tctx.TenantID(), uid); err != nil {
		return nil, err
	}

	return s.store.TransitionHistory(ctx, tctx.TenantID(), uid)
}

// DissolutionQueue returns the tenant's pending dissolution candidates,
// deadline ascending.
func (s *LifecycleService) DissolutionQueue(ctx context.Context, tctx tenant.Context) ([]entity.DissolutionCandidate, error) {
	if err := s.requireRead(tctx); err != nil {
		return nil, err
	}

	var out []entity.DissolutionCandidate

	for _, c := range s.scheduler.Queue() {
		if c.TenantID == tctx.TenantID() {
			out = append(out, c)
		}
	}

	return out, nil
}

// CreateEntity ingests a new entity in capture state with the default
// personal sensitivity.
func (s *LifecycleService) CreateEntity(ctx context.Context, tctx tenant.Context, content []byte) (*entity.Entity, error) {
	if !s.evaluator.CanPerform(tctx, scopes.ScopeLifecycleWrite) {
		return nil, fmt.Errorf("%w: roles %v do not grant %s",
			entity.ErrAuthorizationDenied, tctx.Roles(), scopes.ScopeLifecycleWrite)
	}

	e := entity.New(tctx.TenantID(), content)
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// Transition advances an entity through the lifecycle.
func (s *LifecycleService) Transition(ctx context.Context, tctx tenant.Context, uid string, target entity.State, reason string) (*entity.Entity, error) {
	return withConflictRetry(ctx, "lifecycle.transition", func(ctx context.Context) (*entity.Entity, error) {
		return s.machine.Transition(ctx, tctx, uid, target, reason)
	})
}

// MarkReviewed records a human review on the entity.
func (s *LifecycleService) MarkReviewed(ctx context.Context, tctx tenant.Context, uid string) (*entity.Entity, error) {
	return withConflictRetry(ctx, "lifecycle.mark_reviewed", func(ctx context.Context) (*entity.Entity, error) {
		return s.machine.MarkReviewed(ctx, tctx, uid)
	})
}

// PreventDissolution protects an entity from the scheduler.
func (s *LifecycleService) PreventDissolution(ctx context.Context, tctx tenant.Context, uid, reason string) (*entity.Entity, error) {
	return withConflictRetry(ctx, "lifecycle.prevent", func(ctx context.Context) (*entity.Entity, error) {
		return s.scheduler.Prevent(ctx, tctx, uid, reason)
	})
}

// PostponeDissolution shifts the entity's deadline by the signed number of
// days.
func (s *LifecycleService) PostponeDissolution(ctx context.Context, tctx tenant.Context, uid string, days int) (*entity.Entity, error) {
	return withConflictRetry(ctx, "lifecycle.postpone", func(ctx context.Context) (*entity.Entity, error) {
		return s.scheduler.Postpone(ctx, tctx, uid, days)
	})
}

// ApproveDissolution dissolves the entity. Exactly one of two concurrent
// approvals wins; the loser's conflict is not retried into a double
// dissolution because the entity is already terminal on re-read.
func (s *LifecycleService) ApproveDissolution(ctx context.Context, tctx tenant.Context, uid string) (*entity.Entity, error) {
	return withConflictRetry(ctx, "lifecycle.approve", func(ctx context.Context) (*entity.Entity, error) {
		return s.scheduler.Approve(ctx, tctx, uid)
	})
}

// PreventHistory returns the append-only prevent decisions for an entity.
func (s *LifecycleService) PreventHistory(ctx context.Context, tctx tenant.Context, uid string) ([]entity.PreventRecord, error) {
	if err := s.requireRead(tctx); err != nil {
		return nil, err
	}

	return s.store.PreventHistory(ctx, tctx.TenantID(), uid)
}
