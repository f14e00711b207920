package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/entity"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestCreateGet_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := entity.New("acme", []byte("Design notes\nfull body"))
	e.Sensitivity.Level = entity.LevelConfidential
	e.Sensitivity.CustomRules = []entity.PrivacyRule{
		{Condition: `entity.level == "confidential"`, Action: entity.ActionRedact, Scope: entity.FlagLocalAI, Priority: 10},
		{Condition: `"auditor" in context.roles`, Action: entity.ActionAllow, Scope: entity.FlagExport, Priority: 5},
	}
	require.NoError(t, db.Create(ctx, e))

	got, err := db.Get(ctx, "acme", e.UID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(e, got))
}

func TestCheckpoint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, entity.New("acme", []byte("x"))))
	assert.NoError(t, db.Checkpoint(ctx))
}

func TestGet_Missing(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get(context.Background(), "acme", "no-such-uid")
	assert.ErrorIs(t, err, entity.ErrEntityNotFound)
}

func TestUpdate_VersionToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := entity.New("acme", []byte("v1"))
	require.NoError(t, db.Create(ctx, e))

	base := e.Version

	e.Lifecycle.State = entity.StateTransitional
	require.NoError(t, db.Update(ctx, e, base))
	assert.Equal(t, base+1, e.Version)

	t.Run("stale version loses", func(t *testing.T) {
		stale := e.Clone()
		stale.Lifecycle.State = entity.StatePermanent

		err := db.Update(ctx, stale, base)
		assert.ErrorIs(t, err, entity.ErrConcurrentModification)
	})

	t.Run("fresh read wins", func(t *testing.T) {
		fresh, err := db.Get(ctx, "acme", e.UID)
		require.NoError(t, err)

		fresh.Lifecycle.State = entity.StatePermanent
		require.NoError(t, db.Update(ctx, fresh, fresh.Version))
	})

	t.Run("missing entity is not a conflict", func(t *testing.T) {
		ghost := entity.New("acme", []byte("x"))
		err := db.Update(ctx, ghost, 0)
		assert.ErrorIs(t, err, entity.ErrEntityNotFound)
	})
}

func TestUpdate_DissolvedTombstone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := entity.New("acme", []byte("payload to drop"))
	checksum := e.Checksum
	require.NoError(t, db.Create(ctx, e))

	e.Lifecycle.State = entity.StateDissolved
	require.NoError(t, db.Update(ctx, e, e.Version))

	got, err := db.Get(ctx, "acme", e.UID)
	require.NoError(t, err)
	assert.Nil(t, got.Content)
	assert.Equal(t, checksum, got.Checksum)
	assert.True(t, got.Dissolved())
}

func TestList_TenantScopedWithoutContent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	older := entity.New("acme", []byte("first"))
	older.Created = time.Now().UTC().Add(-time.Hour)
	newer := entity.New("acme", []byte("second"))
	other := entity.New("globex", []byte("elsewhere"))

	for _, e := range []*entity.Entity{older, newer, other} {
		require.NoError(t, db.Create(ctx, e))
	}

	got, err := db.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.UID, got[0].UID)
	assert.Equal(t, older.UID, got[1].UID)

	for _, e := range got {
		assert.Nil(t, e.Content, "listings must not carry payloads")
		assert.NotEmpty(t, e.Checksum)
	}
}

func TestListByState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	captured := entity.New("acme", []byte("a"))
	archived := entity.New("acme", []byte("b"))
	archived.Lifecycle.State = entity.StateArchived

	require.NoError(t, db.Create(ctx, captured))
	require.NoError(t, db.Create(ctx, archived))

	got, err := db.ListByState(ctx, "acme", entity.StateArchived)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, archived.UID, got[0].UID)
}

func TestListDueForDissolution(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	archive := func(t *testing.T, tenant string, dissolveAt time.Time, prevent bool) *entity.Entity {
		t.Helper()

		e := entity.New(tenant, []byte("archived"))
		e.Lifecycle.State = entity.StateArchived
		e.Lifecycle.DissolveAt = &dissolveAt
		e.Override.PreventDissolve = prevent
		require.NoError(t, db.Create(ctx, e))

		return e
	}

	overdue := archive(t, "acme", now.Add(-time.Hour), false)
	soon := archive(t, "globex", now.Add(24*time.Hour), false)
	archive(t, "acme", now.Add(-time.Hour), true)                  // prevented
	archive(t, "acme", now.Add(30*24*time.Hour), false)            // beyond cutoff
	fresh := entity.New("acme", []byte("not archived"))             // wrong state
	require.NoError(t, db.Create(ctx, fresh))

	got, err := db.ListDueForDissolution(ctx, now.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, overdue.UID, got[0].UID, "earliest deadline first")
	assert.Equal(t, soon.UID, got[1].UID)
	assert.Equal(t, "globex", got[1].TenantID, "the scan crosses tenants")
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	reviewed := entity.New("acme", []byte("reviewed"))
	reviewedAt := now.Add(-time.Hour)
	reviewed.Override.HumanLast = &reviewedAt

	stale := entity.New("acme", []byte("never reviewed"))

	archived := entity.New("acme", []byte("archived"))
	archived.Lifecycle.State = entity.StateArchived

	dissolved := entity.New("acme", []byte("gone"))
	dissolved.Lifecycle.State = entity.StateDissolved

	for _, e := range []*entity.Entity{reviewed, stale, archived, dissolved} {
		require.NoError(t, db.Create(ctx, e))
	}

	s, err := db.Stats(ctx, "acme", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Stats{Active: 2, Stale: 1, Archived: 1, Dissolved: 1, Total: 4}, s)
}

func TestTransitionHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	recs := []entity.TransitionRecord{
		{TenantID: "acme", EntityUID: "e1", FromState: entity.StateCapture, ToState: entity.StateTransitional, Actor: "user:alice@acme", Timestamp: now, Reason: "settled"},
		{TenantID: "acme", EntityUID: "e1", FromState: entity.StateTransitional, ToState: entity.StatePermanent, Actor: "user:alice@acme", Timestamp: now.Add(time.Minute)},
	}
	for _, rec := range recs {
		require.NoError(t, db.AppendTransition(ctx, rec))
	}

	// Another entity's trail must not bleed in.
	require.NoError(t, db.AppendTransition(ctx, entity.TransitionRecord{
		TenantID: "acme", EntityUID: "e2",
		FromState: entity.StateCapture, ToState: entity.StateTransitional,
		Actor: "user:bob@acme", Timestamp: now,
	}))

	got, err := db.TransitionHistory(ctx, "acme", "e1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(recs, got))
}

func TestPreventHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := entity.PreventRecord{
		TenantID:  "acme",
		EntityUID: "e1",
		Actor:     "user:alice@acme",
		Reason:    "pending legal hold",
		Timestamp: now,
	}
	require.NoError(t, db.AppendPrevent(ctx, rec))

	got, err := db.PreventHistory(ctx, "acme", "e1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]entity.PreventRecord{rec}, got))

	empty, err := db.PreventHistory(ctx, "acme", "e2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
