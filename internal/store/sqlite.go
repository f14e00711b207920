package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lorekeep/lorekeep/internal/entity"
)

// DB implements Store on a SQLite database.
type DB struct {
	*sql.DB
	Path string
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite database at the given path, configures
// pragmas, and runs migrations.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{DB: sqlDB, Path: path}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// NewStore is the fx provider for the configured entity store.
func NewStore(cfg Config) (Store, error) {
	path := cfg.Path
	if path == "" {
		path = "lorekeep.db"
	}

	return Open(path)
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	return nil
}

// Checkpoint folds the WAL back into the main database file. Run
// periodically so the WAL does not grow without bound.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}

	return nil
}

const entityColumns = `tenant_id, uid, level, privacy, custom_rules, state, review_at, dissolve_at,
    human_last, prevent_dissolve, created, updated, version, checksum, content`

func (db *DB) Create(ctx context.Context, e *entity.Entity) error {
	privacy, rules, err := marshalSensitivity(e)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `INSERT INTO entities (`+entityColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TenantID, e.UID, string(e.Sensitivity.Level), privacy, rules,
		string(e.Lifecycle.State), nanosOrNil(e.Lifecycle.ReviewAt), nanosOrNil(e.Lifecycle.DissolveAt),
		nanosOrNil(e.Override.HumanLast), boolToInt(e.Override.PreventDissolve),
		e.Created.UnixNano(), e.Updated.UnixNano(), e.Version, e.Checksum, e.Content,
	)
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", e.UID, err)
	}

	return nil
}

func (db *DB) Get(ctx context.Context, tenantID, uid string) (*entity.Entity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE tenant_id = ? AND uid = ?`,
		tenantID, uid)

	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrEntityNotFound, uid)
	}

	return e, err
}

func (db *DB) Update(ctx context.Context, e *entity.Entity, expectedVersion int64) error {
	privacy, rules, err := marshalSensitivity(e)
	if err != nil {
		return err
	}

	content := e.Content
	if e.Dissolved() {
		// Terminal entities keep only the metadata tombstone.
		content = nil
	}

	res, err := db.ExecContext(ctx, `UPDATE entities SET
        level = ?, privacy = ?, custom_rules = ?,
        state = ?, review_at = ?, dissolve_at = ?,
        human_last = ?, prevent_dissolve = ?,
        updated = ?, version = version + 1, checksum = ?, content = ?
        WHERE tenant_id = ? AND uid = ? AND version = ?`,
		string(e.Sensitivity.Level), privacy, rules,
		string(e.Lifecycle.State), nanosOrNil(e.Lifecycle.ReviewAt), nanosOrNil(e.Lifecycle.DissolveAt),
		nanosOrNil(e.Override.HumanLast), boolToInt(e.Override.PreventDissolve),
		e.Updated.UnixNano(), e.Checksum, content,
		e.TenantID, e.UID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update entity %s: %w", e.UID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity %s: %w", e.UID, err)
	}

	if affected == 0 {
		var exists int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM entities WHERE tenant_id = ? AND uid = ?`,
			e.TenantID, e.UID).Scan(&exists); err != nil {
			return fmt.Errorf("update entity %s: %w", e.UID, err)
		}

		if exists == 0 {
			return fmt.Errorf("%w: %s", entity.ErrEntityNotFound, e.UID)
		}

		return fmt.Errorf("%w: %s at version %d", entity.ErrConcurrentModification, e.UID, expectedVersion)
	}

	e.Version = expectedVersion + 1

	return nil
}

func (db *DB) List(ctx context.Context, tenantID string) ([]*entity.Entity, error) {
	return db.queryEntities(ctx, `SELECT `+summaryColumns+` FROM entities
        WHERE tenant_id = ? ORDER BY created DESC`, tenantID)
}

func (db *DB) ListByState(ctx context.Context, tenantID string, state entity.State) ([]*entity.Entity, error) {
	return db.queryEntities(ctx, `SELECT `+summaryColumns+` FROM entities
        WHERE tenant_id = ? AND state = ? ORDER BY created DESC`, tenantID, string(state))
}

func (db *DB) ListDueForDissolution(ctx context.Context, cutoff time.Time) ([]*entity.Entity, error) {
	return db.queryEntities(ctx, `SELECT `+summaryColumns+` FROM entities
        WHERE state = ? AND prevent_dissolve = 0 AND dissolve_at IS NOT NULL AND dissolve_at <= ?
        ORDER BY dissolve_at ASC`, string(entity.StateArchived), cutoff.UnixNano())
}

func (db *DB) Stats(ctx context.Context, tenantID string, reviewCutoff time.Time) (Stats, error) {
	var s Stats

	rows, err := db.QueryContext(ctx, `SELECT state, COUNT(1),
        SUM(CASE WHEN (human_last IS NULL OR human_last < ?) THEN 1 ELSE 0 END)
        FROM entities WHERE tenant_id = ? GROUP BY state`, reviewCutoff.UnixNano(), tenantID)
	if err != nil {
		return s, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			state        string
			count, stale int
		)

		if err := rows.Scan(&state, &count, &stale); err != nil {
			return s, fmt.Errorf("scan stats: %w", err)
		}

		s.Total += count

		switch entity.State(state) {
		case entity.StateArchived:
			s.Archived += count
		case entity.StateDissolved:
			s.Dissolved += count
		default:
			s.Active += count
			s.Stale += stale
		}
	}

	return s, rows.Err()
}

func (db *DB) AppendTransition(ctx context.Context, rec entity.TransitionRecord) error {
	_, err := db.ExecContext(ctx, `INSERT INTO transitions
        (tenant_id, entity_uid, from_state, to_state, actor, reason, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.TenantID, rec.EntityUID, string(rec.FromState), string(rec.ToState), rec.Actor, rec.Reason, rec.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("append transition for %s: %w", rec.EntityUID, err)
	}

	return nil
}

func (db *DB) TransitionHistory(ctx context.Context, tenantID, uid string) ([]entity.TransitionRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT entity_uid, from_state, to_state, actor, reason, created_at
        FROM transitions WHERE tenant_id = ? AND entity_uid = ? ORDER BY id ASC`, tenantID, uid)
	if err != nil {
		return nil, fmt.Errorf("query transitions for %s: %w", uid, err)
	}
	defer rows.Close()

	var out []entity.TransitionRecord

	for rows.Next() {
		var (
			rec              entity.TransitionRecord
			from, to, reason string
			ts               int64
		)

		if err := rows.Scan(&rec.EntityUID, &from, &to, &rec.Actor, &reason, &ts); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}

		rec.TenantID = tenantID
		rec.FromState = entity.State(from)
		rec.ToState = entity.State(to)
		rec.Reason = reason
		rec.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, rec)
	}

	return out, rows.Err()
}

func (db *DB) AppendPrevent(ctx context.Context, rec entity.PreventRecord) error {
	_, err := db.ExecContext(ctx, `INSERT INTO prevent_history
        (tenant_id, entity_uid, actor, reason, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		rec.TenantID, rec.EntityUID, rec.Actor, rec.Reason, rec.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("append prevent record for %s: %w", rec.EntityUID, err)
	}

	return nil
}

func (db *DB) PreventHistory(ctx context.Context, tenantID, uid string) ([]entity.PreventRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT entity_uid, actor, reason, created_at
        FROM prevent_history WHERE tenant_id = ? AND entity_uid = ? ORDER BY id ASC`, tenantID, uid)
	if err != nil {
		return nil, fmt.Errorf("query prevent history for %s: %w", uid, err)
	}
	defer rows.Close()

	var out []entity.PreventRecord

	for rows.Next() {
		var (
			rec entity.PreventRecord
			ts  int64
		)

		if err := rows.Scan(&rec.EntityUID, &rec.Actor, &rec.Reason, &ts); err != nil {
			return nil, fmt.Errorf("scan prevent record: %w", err)
		}

		rec.TenantID = tenantID
		rec.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, rec)
	}

	return out, rows.Err()
}

// summaryColumns omits content: listings never carry payloads.
const summaryColumns = `tenant_id, uid, level, privacy, custom_rules, state, review_at, dissolve_at,
    human_last, prevent_dissolve, created, updated, version, checksum, NULL`

func (db *DB) queryEntities(ctx context.Context, query string, args ...any) ([]*entity.Entity, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []*entity.Entity

	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*entity.Entity, error) {
	var (
		e                             entity.Entity
		level, state                  string
		privacyJSON                   []byte
		rulesJSON                     sql.NullString
		reviewAt, dissolveAt, humanAt sql.NullInt64
		prevent                       int
		created, updated              int64
	)

	err := row.Scan(&e.TenantID, &e.UID, &level, &privacyJSON, &rulesJSON,
		&state, &reviewAt, &dissolveAt, &humanAt, &prevent,
		&created, &updated, &e.Version, &e.Checksum, &e.Content)
	if err != nil {
		return nil, err
	}

	e.Sensitivity.Level = entity.Level(level)
	e.Lifecycle.State = entity.State(state)
	e.Lifecycle.ReviewAt = timeOrNil(reviewAt)
	e.Lifecycle.DissolveAt = timeOrNil(dissolveAt)
	e.Override.HumanLast = timeOrNil(humanAt)
	e.Override.PreventDissolve = prevent != 0
	e.Created = time.Unix(0, created).UTC()
	e.Updated = time.Unix(0, updated).UTC()

	if err := json.Unmarshal(privacyJSON, &e.Sensitivity.Privacy); err != nil {
		return nil, fmt.Errorf("decode privacy flags for %s: %w", e.UID, err)
	}

	if rulesJSON.Valid && rulesJSON.String != "" {
		if err := json.Unmarshal([]byte(rulesJSON.String), &e.Sensitivity.CustomRules); err != nil {
			return nil, fmt.Errorf("decode custom rules for %s: %w", e.UID, err)
		}
	}

	return &e, nil
}

func marshalSensitivity(e *entity.Entity) (privacy []byte, rules []byte, err error) {
	privacy, err = json.Marshal(e.Sensitivity.Privacy)
	if err != nil {
		return nil, nil, fmt.Errorf("encode privacy flags for %s: %w", e.UID, err)
	}

	if len(e.Sensitivity.CustomRules) > 0 {
		rules, err = json.Marshal(e.Sensitivity.CustomRules)
		if err != nil {
			return nil, nil, fmt.Errorf("encode custom rules for %s: %w", e.UID, err)
		}
	}

	return privacy, rules, nil
}

func nanosOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UnixNano()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}

	t := time.Unix(0, v.Int64).UTC()

	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
