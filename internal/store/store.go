// Package store persists knowledge entities and their append-only audit
// trails. The engine only ever talks to the Store interface; the SQLite
// implementation below is the one shipped with the server.
package store

import (
	"context"
	"time"

	"github.com/lorekeep/lorekeep/internal/entity"
)

type Config struct {
	// Path is the SQLite database file, or ":memory:".
	Path string `conf:"path" yaml:"path" json:"path"`
}

// Stats summarizes a tenant's entities by lifecycle position.
type Stats struct {
	Active    int `json:"active"`
	Stale     int `json:"stale"`
	Archived  int `json:"archived"`
	Dissolved int `json:"dissolved"`
	Total     int `json:"total"`
}

// Store is the entity store shared by the state machine, the scheduler and
// the traceback resolver. Mutations are conditional on the version read:
// a lost race surfaces entity.ErrConcurrentModification, never a silent
// overwrite.
type Store interface {
	// Create inserts a new entity. The uid must be unique within the tenant.
	Create(ctx context.Context, e *entity.Entity) error

	// Get loads an entity by tenant-scoped uid, including tombstones.
	Get(ctx context.Context, tenantID, uid string) (*entity.Entity, error)

	// Update writes an entity conditionally on expectedVersion and bumps
	// e.Version on success. Entities in the dissolved state are stored as
	// metadata-only tombstones.
	Update(ctx context.Context, e *entity.Entity, expectedVersion int64) error

	// List returns all of a tenant's entities, newest first, without content.
	List(ctx context.Context, tenantID string) ([]*entity.Entity, error)

	// ListByState returns a tenant's entities in the given state, without content.
	ListByState(ctx context.Context, tenantID string, state entity.State) ([]*entity.Entity, error)

	// ListDueForDissolution returns archived entities across all tenants with
	// dissolve_at at or before the cutoff and no prevent override, ordered by
	// dissolve_at ascending.
	ListDueForDissolution(ctx context.Context, cutoff time.Time) ([]*entity.Entity, error)

	// Stats aggregates a tenant's lifecycle counters. Entities in an active
	// state whose last human review predates reviewCutoff count as stale.
	Stats(ctx context.Context, tenantID string, reviewCutoff time.Time) (Stats, error)

	// AppendTransition records a lifecycle transition. Append-only.
	AppendTransition(ctx context.Context, rec entity.TransitionRecord) error

	// TransitionHistory returns an entity's transitions, oldest first.
	TransitionHistory(ctx context.Context, tenantID, uid string) ([]entity.TransitionRecord, error)

	// AppendPrevent records a prevent-dissolution decision. Append-only.
	AppendPrevent(ctx context.Context, rec entity.PreventRecord) error

	// PreventHistory returns an entity's prevent decisions, oldest first.
	PreventHistory(ctx context.Context, tenantID, uid string) ([]entity.PreventRecord, error)

	// Checkpoint performs storage maintenance; safe to call concurrently
	// with reads and writes.
	Checkpoint(ctx context.Context) error

	Close() error
}
