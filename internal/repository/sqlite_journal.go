package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/orgctl/internal/db"
	"github.com/alexanderramin/orgctl/internal/domain"
)

// SQLiteJournalRepo implements JournalRepo using a SQLite database.
type SQLiteJournalRepo struct {
	db db.DBTX
}

// NewSQLiteJournalRepo creates a new SQLiteJournalRepo.
func NewSQLiteJournalRepo(conn db.DBTX) *SQLiteJournalRepo {
	return &SQLiteJournalRepo{db: conn}
}

const journalColumns = `id, operation, org_id, user_id, operator, payload, outcome, message, created_at`

func (r *SQLiteJournalRepo) Append(ctx context.Context, e *domain.JournalEntry) error {
	payload := e.Payload
	if payload == "" {
		payload = "{}"
	}
	query := `INSERT INTO org_journal (` + journalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		string(e.Operation),
		e.OrgID,
		e.UserID,
		e.Operator,
		payload,
		string(e.Outcome),
		e.Message,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

func (r *SQLiteJournalRepo) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM org_journal WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanJournalEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("journal entry: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning journal entry: %w", err)
	}
	return e, nil
}

// List returns entries newest first.
func (r *SQLiteJournalRepo) List(ctx context.Context, f JournalFilter) ([]*domain.JournalEntry, error) {
	var where []string
	var args []any
	if f.OrgID != "" {
		where = append(where, "org_id = ?")
		args = append(args, f.OrgID)
	}
	if f.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, string(f.Operation))
	}

	query := `SELECT ` + journalColumns + ` FROM org_journal`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, f.EffectiveLimit())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJournalEntry(row rowScanner) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	var op, outcome, createdAt string
	if err := row.Scan(&e.ID, &op, &e.OrgID, &e.UserID, &e.Operator, &e.Payload, &outcome, &e.Message, &createdAt); err != nil {
		return nil, err
	}
	e.Operation = domain.Operation(op)
	e.Outcome = domain.Outcome(outcome)
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = t
	return &e, nil
}
