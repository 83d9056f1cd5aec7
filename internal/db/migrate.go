package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillSnapshotCounts(db); err != nil {
		return fmt.Errorf("backfilling snapshot node counts: %w", err)
	}
	return nil
}

// migrateBackfillSnapshotCounts fills node_count for snapshots written
// before the column existed.
func migrateBackfillSnapshotCounts(db *sql.DB) error {
	ctx := context.Background()

	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tree_snapshots WHERE node_count = 0`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking tree_snapshots node_count: %w", err)
	}
	if count == 0 {
		return nil
	}

	query := `UPDATE tree_snapshots
		SET node_count = (SELECT COUNT(*) FROM snapshot_nodes n WHERE n.source = tree_snapshots.source)
		WHERE node_count = 0`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("updating tree_snapshots node_count: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS org_journal (
		id          TEXT PRIMARY KEY,
		operation   TEXT NOT NULL
		            CHECK(operation IN ('create','update','move','set_status','delete',
		                                'set_primary','add_auxiliary','remove_auxiliary')),
		org_id      TEXT NOT NULL DEFAULT '',
		operator    TEXT NOT NULL DEFAULT '',
		payload     TEXT NOT NULL DEFAULT '{}',
		outcome     TEXT NOT NULL CHECK(outcome IN ('ok','failed')),
		message     TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`ALTER TABLE org_journal ADD COLUMN user_id TEXT NOT NULL DEFAULT ''`,

	`CREATE INDEX IF NOT EXISTS idx_org_journal_org ON org_journal(org_id)`,
	`CREATE INDEX IF NOT EXISTS idx_org_journal_created ON org_journal(created_at)`,

	`CREATE TABLE IF NOT EXISTS tree_snapshots (
		source     TEXT PRIMARY KEY,
		fetched_at TEXT NOT NULL
	)`,

	`ALTER TABLE tree_snapshots ADD COLUMN node_count INTEGER NOT NULL DEFAULT 0`,

	`CREATE TABLE IF NOT EXISTS snapshot_nodes (
		source        TEXT NOT NULL REFERENCES tree_snapshots(source) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		id            TEXT NOT NULL,
		parent_id     TEXT NOT NULL DEFAULT '0',
		name          TEXT NOT NULL,
		code          TEXT NOT NULL DEFAULT '',
		type          INTEGER NOT NULL DEFAULT 2 CHECK(type IN (1,2)),
		status        INTEGER NOT NULL DEFAULT 1 CHECK(status IN (0,1)),
		sort_order    INTEGER NOT NULL DEFAULT 0,
		leader_id     TEXT NOT NULL DEFAULT '',
		leader_name   TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		region        TEXT NOT NULL DEFAULT '',
		is_main       INTEGER NOT NULL DEFAULT 0,
		member_count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (source, position)
	)`,
}
