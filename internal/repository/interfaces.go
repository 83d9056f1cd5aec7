package repository

import (
	"context"

	"github.com/alexanderramin/orgctl/internal/domain"
)

// Journal listing bounds.
const (
	DefaultJournalLimit = 100
	MaxJournalLimit     = 1000
)

// JournalFilter narrows a journal listing. A zero Limit means
// DefaultJournalLimit; larger values are capped at MaxJournalLimit.
type JournalFilter struct {
	OrgID     string
	Operation domain.Operation
	Limit     int
}

// EffectiveLimit applies the default and the cap.
func (f JournalFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultJournalLimit
	case f.Limit > MaxJournalLimit:
		return MaxJournalLimit
	default:
		return f.Limit
	}
}

type JournalRepo interface {
	Append(ctx context.Context, e *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	List(ctx context.Context, f JournalFilter) ([]*domain.JournalEntry, error)
}

type SnapshotRepo interface {
	Save(ctx context.Context, s *domain.TreeSnapshot) error
	Get(ctx context.Context, source string) (*domain.TreeSnapshot, error)
	Delete(ctx context.Context, source string) error
}
