package biz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/objects"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/scopes"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

type PrivacyServiceParams struct {
	fx.In

	Store     store.Store
	Evaluator *privacy.Evaluator
}

func NewPrivacyService(params PrivacyServiceParams) *PrivacyService {
	return &PrivacyService{
		store:     params.Store,
		evaluator: params.Evaluator,
	}
}

// PrivacyService reclassifies entity sensitivity. Raising or lowering a
// level resets the privacy flags to that level's defaults; custom rules are
// kept and keep applying on top of the new floor.
type PrivacyService struct {
	store     store.Store
	evaluator *privacy.Evaluator
}

// ClassifyEntity sets the entity's sensitivity level. The caller's role
// ceiling must cover both the current and the target level.
func (s *PrivacyService) ClassifyEntity(ctx context.Context, tctx tenant.Context, uid string, level entity.Level) (*entity.Entity, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidSensitivityLevel, level)
	}

	return withConflictRetry(ctx, "privacy.classify", func(ctx context.Context) (*entity.Entity, error) {
		e, err := s.store.Get(ctx, tctx.TenantID(), uid)
		if err != nil {
			return nil, err
		}

		if e.Dissolved() {
			return nil, fmt.Errorf("%w: %s is dissolved", entity.ErrInvalidTransition, uid)
		}

		if err := s.evaluator.RequireAction(e, tctx, scopes.ScopePrivacyWrite); err != nil {
			return nil, err
		}

		// The target level must also sit under the caller's ceiling, or a
		// low-clearance role could reclassify content it may not touch.
		target := e.Clone()
		target.Sensitivity.Level = level

		if err := s.evaluator.RequireAction(target, tctx, scopes.ScopePrivacyWrite); err != nil {
			return nil, err
		}

		defaults, err := privacy.DefaultsFor(level)
		if err != nil {
			return nil, err
		}

		version := e.Version
		e.Sensitivity.Level = level
		e.Sensitivity.Privacy = defaults
		e.Updated = time.Now().UTC()

		if err := s.store.Update(ctx, e, version); err != nil {
			return nil, err
		}

		return e, nil
	})
}

// BulkClassify applies a level to a batch of entities. One entity's failure
// never aborts the batch; per-entity outcomes are reported.
func (s *PrivacyService) BulkClassify(ctx context.Context, tctx tenant.Context, uids []string, level entity.Level) []objects.ClassifyResult {
	results := make([]objects.ClassifyResult, 0, len(uids))

	for _, uid := range uids {
		result := objects.ClassifyResult{UID: uid, Success: true}

		if _, err := s.ClassifyEntity(ctx, tctx, uid, level); err != nil {
			result.Success = false
			result.Error = err.Error()
		}

		results = append(results, result)
	}

	return results
}

// EffectiveFlags computes the caller-visible privacy flags for an entity.
func (s *PrivacyService) EffectiveFlags(ctx context.Context, tctx tenant.Context, uid string) (entity.PrivacyFlags, error) {
	if !s.evaluator.CanPerform(tctx, scopes.ScopePrivacyRead) {
		return entity.PrivacyFlags{}, fmt.Errorf("%w: roles %v do not grant %s",
			entity.ErrAuthorizationDenied, tctx.Roles(), scopes.ScopePrivacyRead)
	}

	e, err := s.store.Get(ctx, tctx.TenantID(), uid)
	if err != nil {
		return entity.PrivacyFlags{}, err
	}

	return s.evaluator.EffectiveFlags(e, tctx)
}
