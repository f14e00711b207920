package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/scopes"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()

	registry, err := NewRegistry(Config{})
	require.NoError(t, err)

	return NewEvaluator(registry, newTestClassifier())
}

func TestDecide_ActionScopes(t *testing.T) {
	ev := newTestEvaluator(t)
	e := testEntity(entity.LevelPersonal)

	t.Run("owner may transition", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		d := ev.Decide(e, tctx, string(scopes.ScopeLifecycleWrite))
		assert.True(t, d.Allowed())
	})

	t.Run("viewer may not transition", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u2", []string{"viewer"}, nil)
		d := ev.Decide(e, tctx, string(scopes.ScopeLifecycleWrite))
		require.False(t, d.Allowed())
		assert.ErrorIs(t, d.Denied(), entity.ErrAuthorizationDenied)
		assert.NotEmpty(t, d.Reason)
	})

	t.Run("multiple roles compose by union", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u3", []string{"viewer", "editor"}, nil)
		d := ev.Decide(e, tctx, string(scopes.ScopeLifecycleWrite))
		assert.True(t, d.Allowed())
	})
}

func TestDecide_SensitivityCeiling(t *testing.T) {
	ev := newTestEvaluator(t)
	secret := testEntity(entity.LevelSecret)

	t.Run("editor capped at confidential", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u1", []string{"editor"}, nil)
		d := ev.Decide(secret, tctx, string(scopes.ScopeLifecycleWrite))
		require.False(t, d.Allowed())
		assert.ErrorIs(t, d.Denied(), entity.ErrAuthorizationDenied)
	})

	t.Run("owner covers secret", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		d := ev.Decide(secret, tctx, string(scopes.ScopeLifecycleWrite))
		assert.True(t, d.Allowed())
	})

	t.Run("composition takes least-restrictive ceiling", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u1", []string{"viewer", "owner"}, nil)
		d := ev.Decide(secret, tctx, string(scopes.ScopeLifecycleRead))
		assert.True(t, d.Allowed())
	})
}

func TestDecide_UnknownRoleFailsClosed(t *testing.T) {
	ev := newTestEvaluator(t)
	e := testEntity(entity.LevelPublic)

	tctx := tenant.NewContext("acme", "u1", []string{"superuser"}, nil)
	d := ev.Decide(e, tctx, string(scopes.ScopeLifecycleRead))
	require.False(t, d.Allowed())
	assert.ErrorIs(t, d.Denied(), entity.ErrUnknownRole)
}

func TestDecide_NoRolesFailsClosed(t *testing.T) {
	ev := newTestEvaluator(t)
	e := testEntity(entity.LevelPublic)

	// A role-less context composes no policy; even a public entity's
	// permissive flag defaults must not leak through.
	tctx := tenant.NewContext("acme", "mallory", nil, nil)

	d := ev.Decide(e, tctx, entity.FlagExport)
	require.False(t, d.Allowed())
	assert.ErrorIs(t, d.Denied(), entity.ErrPolicyViolation)

	d = ev.Decide(e, tctx, string(scopes.ScopeLifecycleRead))
	require.False(t, d.Allowed())

	assert.False(t, ev.CanPerform(tctx, scopes.ScopeLifecycleRead))
}

func TestCovers_InvalidCeiling(t *testing.T) {
	var p AuthorizationPolicy

	assert.False(t, p.Covers(entity.LevelPublic), "a zero policy covers nothing")
	assert.False(t, AuthorizationPolicy{MaxSensitivity: "mystery"}.Covers(entity.LevelPublic))
}

func TestDecide_FlagScopes(t *testing.T) {
	ev := newTestEvaluator(t)

	t.Run("level default denies export on confidential", func(t *testing.T) {
		e := testEntity(entity.LevelConfidential)
		tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		d := ev.Decide(e, tctx, entity.FlagExport)
		require.False(t, d.Allowed())
		assert.ErrorIs(t, d.Denied(), entity.ErrPolicyViolation)
		assert.Contains(t, d.Reason, "default denies")
	})

	t.Run("allow rule opens export for owner", func(t *testing.T) {
		e := testEntity(entity.LevelConfidential, entity.PrivacyRule{
			Condition: `"owner" in context.roles`,
			Action:    entity.ActionAllow,
			Scope:     entity.FlagExport,
			Priority:  10,
		})

		owner := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		assert.True(t, ev.Decide(e, owner, entity.FlagExport).Allowed())

		viewer := tenant.NewContext("acme", "u2", []string{"viewer"}, nil)
		assert.False(t, ev.Decide(e, viewer, entity.FlagExport).Allowed())
	})

	t.Run("redact rule yields redact effect", func(t *testing.T) {
		e := testEntity(entity.LevelPersonal, entity.PrivacyRule{
			Action:   entity.ActionRedact,
			Scope:    entity.FlagLocalAI,
			Priority: 50,
		})

		tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		d := ev.Decide(e, tctx, entity.FlagLocalAI)
		assert.Equal(t, EffectRedact, d.Effect)
	})

	t.Run("unknown scope denies", func(t *testing.T) {
		e := testEntity(entity.LevelPublic)
		tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		d := ev.Decide(e, tctx, "telepathy_allowed")
		require.False(t, d.Allowed())
	})
}

func TestCanPerform(t *testing.T) {
	ev := newTestEvaluator(t)

	viewer := tenant.NewContext("acme", "u1", []string{"viewer"}, nil)
	assert.True(t, ev.CanPerform(viewer, scopes.ScopeLifecycleRead))
	assert.False(t, ev.CanPerform(viewer, scopes.ScopeLifecycleOverride))
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := NewRegistry(Config{Roles: map[string]RoleConfig{
			"auditor": {Actions: []string{"lifecycle_read"}, MaxSensitivity: "ultra"},
		}})
		require.ErrorIs(t, err, entity.ErrInvalidSensitivityLevel)
	})

	t.Run("rejects unknown action", func(t *testing.T) {
		_, err := NewRegistry(Config{Roles: map[string]RoleConfig{
			"auditor": {Actions: []string{"time_travel"}, MaxSensitivity: "public"},
		}})
		require.Error(t, err)
	})
}
