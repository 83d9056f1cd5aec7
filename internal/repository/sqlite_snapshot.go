package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/orgctl/internal/db"
	"github.com/alexanderramin/orgctl/internal/domain"
)

// SQLiteSnapshotRepo implements SnapshotRepo using a SQLite database.
// Save issues several statements; run it inside a UnitOfWork to make the
// replacement atomic.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

// NewSQLiteSnapshotRepo creates a new SQLiteSnapshotRepo.
func NewSQLiteSnapshotRepo(conn db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: conn}
}

// Save replaces the snapshot stored for s.Source.
func (r *SQLiteSnapshotRepo) Save(ctx context.Context, s *domain.TreeSnapshot) error {
	if err := r.Delete(ctx, s.Source); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tree_snapshots (source, fetched_at, node_count) VALUES (?, ?, ?)`,
		s.Source, s.FetchedAt.UTC().Format(time.RFC3339), len(s.Nodes))
	if err != nil {
		return fmt.Errorf("inserting tree snapshot: %w", err)
	}

	query := `INSERT INTO snapshot_nodes (source, position, id, parent_id, name, code, type, status,
		sort_order, leader_id, leader_name, description, region, is_main, member_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, n := range s.Nodes {
		parentID := n.ParentID
		if parentID == "" {
			parentID = domain.RootParentID
		}
		_, err := r.db.ExecContext(ctx, query,
			s.Source, i, n.ID, parentID, n.Name, n.Code, int(n.Type), int(n.Status),
			n.SortOrder, n.LeaderID, n.LeaderName, n.Description, n.Region,
			boolToInt(n.IsMainDepartment), n.MemberCount,
		)
		if err != nil {
			return fmt.Errorf("inserting snapshot node %s: %w", n.ID, err)
		}
	}
	return nil
}

// Get loads the snapshot for source with nodes in their saved order.
func (r *SQLiteSnapshotRepo) Get(ctx context.Context, source string) (*domain.TreeSnapshot, error) {
	var fetchedAt string
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT fetched_at, node_count FROM tree_snapshots WHERE source = ?`, source).Scan(&fetchedAt, &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tree snapshot: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning tree snapshot: %w", err)
	}
	t, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing fetched_at: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, parent_id, name, code, type, status, sort_order,
		leader_id, leader_name, description, region, is_main, member_count
		FROM snapshot_nodes WHERE source = ? ORDER BY position`, source)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot nodes: %w", err)
	}
	defer rows.Close()

	snap := &domain.TreeSnapshot{Source: source, FetchedAt: t, Nodes: make([]domain.OrgNode, 0, count)}
	for rows.Next() {
		var n domain.OrgNode
		var typ, status, isMain int
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Name, &n.Code, &typ, &status, &n.SortOrder,
			&n.LeaderID, &n.LeaderName, &n.Description, &n.Region, &isMain, &n.MemberCount); err != nil {
			return nil, fmt.Errorf("scanning snapshot node: %w", err)
		}
		n.Type = domain.OrgType(typ)
		n.Status = domain.OrgStatus(status)
		n.IsMainDepartment = intToBool(isMain)
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot nodes: %w", err)
	}
	return snap, nil
}

func (r *SQLiteSnapshotRepo) Delete(ctx context.Context, source string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tree_snapshots WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting tree snapshot: %w", err)
	}
	return nil
}
