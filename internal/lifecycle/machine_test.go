package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/authz"
	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

func newTestMachine(t *testing.T) (*Machine, store.Store) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "lifecycle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry, err := privacy.NewRegistry(privacy.Config{})
	require.NoError(t, err)

	evaluator := privacy.NewEvaluator(registry, privacy.NewClassifier(privacy.NewConditionCache()))

	return NewMachine(db, evaluator, DefaultConfig()), db
}

func ownerContext(tenantID string) tenant.Context {
	return tenant.NewContext(tenantID, "alice", []string{"owner"}, nil)
}

func seedEntity(t *testing.T, st store.Store, tenantID string, state entity.State) *entity.Entity {
	t.Helper()

	e := entity.New(tenantID, []byte("field notes"))
	e.Lifecycle.State = state
	require.NoError(t, st.Create(context.Background(), e))

	return e
}

func TestMachineTransitionForward(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StateCapture)

	steps := []entity.State{
		entity.StatePermanent, // skipping transitional must fail
	}
	for _, target := range steps {
		_, err := m.Transition(ctx, tctx, e.UID, target, "skip ahead")
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	}

	got, err := m.Transition(ctx, tctx, e.UID, entity.StateTransitional, "captured")
	require.NoError(t, err)
	assert.Equal(t, entity.StateTransitional, got.Lifecycle.State)
	require.NotNil(t, got.Lifecycle.ReviewAt)

	got, err = m.Transition(ctx, tctx, e.UID, entity.StatePermanent, "reviewed")
	require.NoError(t, err)
	assert.Equal(t, entity.StatePermanent, got.Lifecycle.State)

	got, err = m.Transition(ctx, tctx, e.UID, entity.StateArchived, "cold")
	require.NoError(t, err)
	assert.Equal(t, entity.StateArchived, got.Lifecycle.State)
	require.NotNil(t, got.Lifecycle.DissolveAt)
	assert.WithinDuration(t,
		time.Now().UTC().Add(DefaultConfig().Retention.Personal),
		*got.Lifecycle.DissolveAt, time.Minute)

	history, err := st.TransitionHistory(ctx, "t1", e.UID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, entity.StateCapture, history[0].FromState)
	assert.Equal(t, entity.StateArchived, history[2].ToState)
	assert.Equal(t, "user:alice@t1", history[2].Actor)
}

func TestMachineTransitionNeverSkipsBackward(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StatePermanent)

	for _, target := range []entity.State{entity.StateCapture, entity.StateTransitional, entity.StateDissolved} {
		_, err := m.Transition(ctx, tctx, e.UID, target, "backward")
		assert.ErrorIs(t, err, entity.ErrInvalidTransition, "permanent -> %s", target)
	}
}

func TestMachineDissolveSetsTombstone(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StateArchived)

	got, err := m.Transition(ctx, tctx, e.UID, entity.StateDissolved, "retention expired")
	require.NoError(t, err)
	assert.True(t, got.Dissolved())
	assert.Nil(t, got.Content)

	stored, err := st.Get(ctx, "t1", e.UID)
	require.NoError(t, err)
	assert.Nil(t, stored.Content)
	assert.NotEmpty(t, stored.Checksum, "metadata tombstone keeps the checksum")

	_, err = m.Transition(ctx, tctx, e.UID, entity.StateTransitional, "undo")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition, "dissolved is terminal")
}

func TestMachinePreventDissolveBlocksDissolution(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StateArchived)

	got, err := m.SetPreventDissolve(ctx, tctx, e.UID, true, "legal hold")
	require.NoError(t, err)
	assert.True(t, got.Override.PreventDissolve)

	_, err = m.Transition(ctx, tctx, e.UID, entity.StateDissolved, "scheduled")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	prevents, err := st.PreventHistory(ctx, "t1", e.UID)
	require.NoError(t, err)
	require.Len(t, prevents, 1)
	assert.Equal(t, "legal hold", prevents[0].Reason)

	// Lifting the hold re-enables the normal path.
	_, err = m.SetPreventDissolve(ctx, tctx, e.UID, false, "hold released")
	require.NoError(t, err)

	_, err = m.Transition(ctx, tctx, e.UID, entity.StateDissolved, "scheduled")
	require.NoError(t, err)
}

func TestMachineReopenClearsDeadline(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StatePermanent)

	got, err := m.Transition(ctx, tctx, e.UID, entity.StateArchived, "cold")
	require.NoError(t, err)
	require.NotNil(t, got.Lifecycle.DissolveAt)

	got, err = m.Transition(ctx, tctx, e.UID, entity.StateTransitional, "needed again")
	require.NoError(t, err)
	assert.Equal(t, entity.StateTransitional, got.Lifecycle.State)
	assert.Nil(t, got.Lifecycle.DissolveAt)
	require.NotNil(t, got.Lifecycle.ReviewAt)
}

func TestMachineReopenRequiresOverrideScope(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()

	e := seedEntity(t, st, "t1", entity.StateArchived)

	// Editors hold lifecycle_write but not lifecycle_override.
	editor := tenant.NewContext("t1", "bob", []string{"editor"}, nil)
	_, err := m.Transition(ctx, editor, e.UID, entity.StateTransitional, "reopen")
	assert.ErrorIs(t, err, entity.ErrAuthorizationDenied)

	_, err = m.Transition(ctx, ownerContext("t1"), e.UID, entity.StateTransitional, "reopen")
	require.NoError(t, err)
}

func TestMachineAuthorizationFailsClosed(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()

	e := seedEntity(t, st, "t1", entity.StateCapture)

	viewer := tenant.NewContext("t1", "carol", []string{"viewer"}, nil)
	_, err := m.Transition(ctx, viewer, e.UID, entity.StateTransitional, "promote")
	assert.ErrorIs(t, err, entity.ErrAuthorizationDenied)

	nobody := tenant.NewContext("t1", "dave", []string{"ghost"}, nil)
	_, err = m.Transition(ctx, nobody, e.UID, entity.StateTransitional, "promote")
	assert.ErrorIs(t, err, entity.ErrUnknownRole)
}

func TestMachineSystemPrincipalBypassesRolePolicy(t *testing.T) {
	m, st := newTestMachine(t)

	e := seedEntity(t, st, "t1", entity.StateArchived)

	ctx := authz.WithSystemBypass(context.Background(), "scheduler:dissolution")
	tctx := tenant.NewContext("t1", "", nil, nil)

	got, err := m.Transition(ctx, tctx, e.UID, entity.StateDissolved, "retention expired")
	require.NoError(t, err)
	assert.True(t, got.Dissolved())

	history, err := st.TransitionHistory(context.Background(), "t1", e.UID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Actor, "system")
}

func TestMachinePostpone(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StatePermanent)

	got, err := m.Transition(ctx, tctx, e.UID, entity.StateArchived, "cold")
	require.NoError(t, err)
	original := *got.Lifecycle.DissolveAt

	got, err = m.Postpone(ctx, tctx, e.UID, 7)
	require.NoError(t, err)
	assert.Equal(t, original.Add(7*24*time.Hour), *got.Lifecycle.DissolveAt)

	got, err = m.Postpone(ctx, tctx, e.UID, -7)
	require.NoError(t, err)
	assert.Equal(t, original, *got.Lifecycle.DissolveAt, "negative postpone restores the schedule")

	fresh := seedEntity(t, st, "t1", entity.StateCapture)
	_, err = m.Postpone(ctx, tctx, fresh.UID, 7)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestMachineMarkReviewed(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StateTransitional)

	got, err := m.MarkReviewed(ctx, tctx, e.UID)
	require.NoError(t, err)
	require.NotNil(t, got.Override.HumanLast)
	require.NotNil(t, got.Lifecycle.ReviewAt)
	assert.WithinDuration(t,
		time.Now().UTC().Add(DefaultConfig().ReviewWindow),
		*got.Lifecycle.ReviewAt, time.Minute)
}

func TestMachineConcurrentModification(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	e := seedEntity(t, st, "t1", entity.StateCapture)

	stale, err := st.Get(ctx, "t1", e.UID)
	require.NoError(t, err)

	_, err = m.Transition(ctx, tctx, e.UID, entity.StateTransitional, "first writer")
	require.NoError(t, err)

	stale.Updated = time.Now().UTC()
	err = st.Update(ctx, stale, stale.Version)
	assert.ErrorIs(t, err, entity.ErrConcurrentModification)
}

func TestMachineRetentionWindowTracksSensitivity(t *testing.T) {
	m, st := newTestMachine(t)
	ctx := context.Background()
	tctx := ownerContext("t1")

	cfg := DefaultConfig()
	cases := map[entity.Level]time.Duration{
		entity.LevelPublic:       cfg.Retention.Public,
		entity.LevelPersonal:     cfg.Retention.Personal,
		entity.LevelConfidential: cfg.Retention.Confidential,
		entity.LevelSecret:       cfg.Retention.Secret,
	}

	for level, window := range cases {
		e := entity.New("t1", []byte("notes"))
		e.Sensitivity.Level = level
		e.Lifecycle.State = entity.StatePermanent
		require.NoError(t, st.Create(ctx, e))

		got, err := m.Transition(ctx, tctx, e.UID, entity.StateArchived, "cold")
		require.NoError(t, err)
		require.NotNil(t, got.Lifecycle.DissolveAt)
		assert.WithinDuration(t, time.Now().UTC().Add(window), *got.Lifecycle.DissolveAt, time.Minute, "level %s", level)
	}
}
