package store

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "entities: lifecycle and privacy envelope",
		SQL: `
CREATE TABLE entities (
    tenant_id        TEXT NOT NULL,
    uid              TEXT NOT NULL,

    level            TEXT NOT NULL CHECK (level IN ('public', 'personal', 'confidential', 'secret')),
    privacy          TEXT NOT NULL,
    custom_rules     TEXT,

    state            TEXT NOT NULL CHECK (state IN ('capture', 'transitional', 'permanent', 'archived', 'dissolved')),
    review_at        INTEGER,
    dissolve_at      INTEGER,

    human_last       INTEGER,
    prevent_dissolve INTEGER NOT NULL DEFAULT 0,

    created          INTEGER NOT NULL,
    updated          INTEGER NOT NULL,
    version          INTEGER NOT NULL DEFAULT 1,
    checksum         TEXT NOT NULL,
    content          BLOB,

    PRIMARY KEY (tenant_id, uid)
);

CREATE INDEX idx_entities_state       ON entities(tenant_id, state);
CREATE INDEX idx_entities_dissolve_at ON entities(state, prevent_dissolve, dissolve_at);
`,
	},
	{
		Version:     2,
		Description: "transitions: append-only lifecycle audit trail",
		SQL: `
CREATE TABLE transitions (
    id          INTEGER PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    entity_uid  TEXT NOT NULL,
    from_state  TEXT NOT NULL,
    to_state    TEXT NOT NULL,
    actor       TEXT NOT NULL,
    reason      TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_transitions_entity ON transitions(tenant_id, entity_uid, id);
`,
	},
	{
		Version:     3,
		Description: "prevent_history: append-only prevent-dissolution decisions",
		SQL: `
CREATE TABLE prevent_history (
    id          INTEGER PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    entity_uid  TEXT NOT NULL,
    actor       TEXT NOT NULL,
    reason      TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_prevent_entity ON prevent_history(tenant_id, entity_uid, id);
`,
	},
}

func (db *DB) migrate() error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version     INTEGER PRIMARY KEY,
        applied_at  INTEGER NOT NULL
    )`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := db.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, strftime('%s','now'))`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	return nil
}
