package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Journal records every mutation attempted from this console. Write
// failures are logged and never surface to the caller.
type Journal struct {
	repo     repository.JournalRepo
	operator string
	logger   *zap.Logger
	now      func() time.Time
}

// NewJournal returns a Journal writing to repo. A nil repo disables recording.
func NewJournal(repo repository.JournalRepo, operator string, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{repo: repo, operator: operator, logger: logger, now: time.Now}
}

func (j *Journal) record(ctx context.Context, op domain.Operation, orgID, userID string, payload any, opErr error) {
	if j == nil || j.repo == nil {
		return
	}
	body := "{}"
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			body = string(b)
		}
	}
	e := &domain.JournalEntry{
		ID:        uuid.New().String(),
		Operation: op,
		OrgID:     orgID,
		UserID:    userID,
		Operator:  j.operator,
		Payload:   body,
		Outcome:   domain.OutcomeOK,
		CreatedAt: j.now().UTC(),
	}
	if opErr != nil {
		e.Outcome = domain.OutcomeFailed
		e.Message = opErr.Error()
	}
	if err := j.repo.Append(ctx, e); err != nil {
		j.logger.Warn("journal_write_failed",
			zap.String("operation", string(op)),
			zap.String("org_id", orgID),
			zap.Error(err))
	}
}

// List returns recorded entries newest first.
func (j *Journal) List(ctx context.Context, f repository.JournalFilter) ([]*domain.JournalEntry, error) {
	if j == nil || j.repo == nil {
		return nil, nil
	}
	return j.repo.List(ctx, f)
}
