// Package lifecycle owns the entity state machine: which transitions are
// valid, who may perform them, and how dissolution deadlines are computed.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/lorekeep/lorekeep/internal/authz"
	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/log"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/scopes"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

// Machine validates and applies lifecycle mutations. Every mutation is a
// single conditional write: a lost race surfaces
// entity.ErrConcurrentModification and leaves no partial state.
type Machine struct {
	store     store.Store
	evaluator *privacy.Evaluator
	config    Config
}

func NewMachine(st store.Store, evaluator *privacy.Evaluator, config Config) *Machine {
	return &Machine{store: st, evaluator: evaluator, config: config}
}

// Config exposes the lifecycle policy, for the scheduler's urgency scoring.
func (m *Machine) Config() Config {
	return m.config
}

// Transition moves an entity to the target state. The target must be the
// immediate successor of the current state, or the authorized reopen from
// archived back to transitional, which clears the dissolution deadline.
// Reopening a dissolved entity is rejected: tombstones have no content left
// to restore.
func (m *Machine) Transition(ctx context.Context, tctx tenant.Context, uid string, target entity.State, reason string) (*entity.Entity, error) {
	e, err := m.store.Get(ctx, tctx.TenantID(), uid)
	if err != nil {
		return nil, err
	}

	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown state %q", entity.ErrInvalidTransition, target)
	}

	current := e.Lifecycle.State
	reopen := current == entity.StateArchived && target == entity.StateTransitional

	if !reopen {
		next, ok := current.Next()
		if !ok || next != target {
			return nil, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, current, target)
		}
	}

	if target == entity.StateDissolved && e.Override.PreventDissolve {
		return nil, fmt.Errorf("%w: %s is protected from dissolution", entity.ErrInvalidTransition, uid)
	}

	requiredScope := scopes.ScopeLifecycleWrite
	if reopen {
		requiredScope = scopes.ScopeLifecycleOverride
	}

	if err := m.authorize(ctx, e, tctx, requiredScope); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := e.Version

	e.Lifecycle.State = target
	e.Updated = now

	switch target {
	case entity.StateArchived:
		dissolveAt := now.Add(m.config.Retention.Window(e.Sensitivity.Level))
		e.Lifecycle.DissolveAt = &dissolveAt
		e.Lifecycle.ReviewAt = nil
	case entity.StateDissolved:
		e.Content = nil
		e.Lifecycle.DissolveAt = nil
		e.Lifecycle.ReviewAt = nil
	case entity.StateTransitional:
		if reopen {
			e.Lifecycle.DissolveAt = nil
		}

		reviewAt := now.Add(m.config.ReviewWindow)
		e.Lifecycle.ReviewAt = &reviewAt
	default:
		reviewAt := now.Add(m.config.ReviewWindow)
		e.Lifecycle.ReviewAt = &reviewAt
	}

	if err := m.store.Update(ctx, e, version); err != nil {
		return nil, err
	}

	rec := entity.TransitionRecord{
		TenantID:  e.TenantID,
		EntityUID: e.UID,
		FromState: current,
		ToState:   target,
		Actor:     m.actor(ctx, tctx),
		Timestamp: now,
		Reason:    reason,
	}

	if err := m.store.AppendTransition(ctx, rec); err != nil {
		// The transition itself committed; a missing audit row is logged,
		// not rolled back.
		log.Error(ctx, "failed to append transition record",
			log.String("entity_uid", e.UID),
			log.Cause(err),
		)
	}

	return e, nil
}

// MarkReviewed records a human review. It does not change state; it resets
// the review deadline consulted by the staleness stats.
func (m *Machine) MarkReviewed(ctx context.Context, tctx tenant.Context, uid string) (*entity.Entity, error) {
	e, err := m.store.Get(ctx, tctx.TenantID(), uid)
	if err != nil {
		return nil, err
	}

	if e.Dissolved() {
		return nil, fmt.Errorf("%w: %s is dissolved", entity.ErrInvalidTransition, uid)
	}

	if err := m.authorize(ctx, e, tctx, scopes.ScopeLifecycleWrite); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := e.Version

	e.Override.HumanLast = &now
	reviewAt := now.Add(m.config.ReviewWindow)
	e.Lifecycle.ReviewAt = &reviewAt
	e.Updated = now

	if err := m.store.Update(ctx, e, version); err != nil {
		return nil, err
	}

	return e, nil
}

// SetPreventDissolve toggles the dissolution override. Enabling it keeps
// the stored deadline but removes the entity from scheduler consideration,
// so re-enabling restores the original schedule.
func (m *Machine) SetPreventDissolve(ctx context.Context, tctx tenant.Context, uid string, prevent bool, reason string) (*entity.Entity, error) {
	e, err := m.store.Get(ctx, tctx.TenantID(), uid)
	if err != nil {
		return nil, err
	}

	if e.Dissolved() {
		return nil, fmt.Errorf("%w: %s is dissolved", entity.ErrInvalidTransition, uid)
	}

	if err := m.authorize(ctx, e, tctx, scopes.ScopeLifecycleOverride); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := e.Version

	e.Override.PreventDissolve = prevent
	e.Updated = now

	if err := m.store.Update(ctx, e, version); err != nil {
		return nil, err
	}

	if prevent {
		rec := entity.PreventRecord{
			TenantID:  e.TenantID,
			EntityUID: e.UID,
			Actor:     m.actor(ctx, tctx),
			Reason:    reason,
			Timestamp: now,
		}

		if err := m.store.AppendPrevent(ctx, rec); err != nil {
			log.Error(ctx, "failed to append prevent record",
				log.String("entity_uid", e.UID),
				log.Cause(err),
			)
		}
	}

	return e, nil
}

// Postpone shifts the dissolution deadline by a signed number of days.
func (m *Machine) Postpone(ctx context.Context, tctx tenant.Context, uid string, days int) (*entity.Entity, error) {
	e, err := m.store.Get(ctx, tctx.TenantID(), uid)
	if err != nil {
		return nil, err
	}

	if e.Lifecycle.State != entity.StateArchived || e.Lifecycle.DissolveAt == nil {
		return nil, fmt.Errorf("%w: %s has no dissolution scheduled", entity.ErrInvalidTransition, uid)
	}

	if err := m.authorize(ctx, e, tctx, scopes.ScopeLifecycleOverride); err != nil {
		return nil, err
	}

	version := e.Version
	deadline := e.Lifecycle.DissolveAt.Add(time.Duration(days) * 24 * time.Hour)
	e.Lifecycle.DissolveAt = &deadline
	e.Updated = time.Now().UTC()

	if err := m.store.Update(ctx, e, version); err != nil {
		return nil, err
	}

	return e, nil
}

// authorize gates a mutation on the actor's policy. System principals
// (the scheduler) bypass role policy; everything else goes through the
// evaluator, which fails closed.
func (m *Machine) authorize(ctx context.Context, e *entity.Entity, tctx tenant.Context, scope scopes.ScopeSlug) error {
	if p, ok := authz.GetPrincipal(ctx); ok && (p.IsSystem() || p.IsTest()) {
		return nil
	}

	return m.evaluator.RequireAction(e, tctx, scope)
}

func (m *Machine) actor(ctx context.Context, tctx tenant.Context) string {
	if p, ok := authz.GetPrincipal(ctx); ok && p.IsSystem() {
		return p.String()
	}

	return tctx.Actor()
}
