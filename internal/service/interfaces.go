package service

import (
	"context"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/tree"
)

// OrgService coordinates tree mutations: local validation, one service
// call, then a refetch of the tree. The store is never patched
// optimistically.
type OrgService interface {
	Store() *tree.Store
	Refresh(ctx context.Context, q orgclient.TreeQuery) error
	LoadCached(ctx context.Context) (*domain.TreeSnapshot, error)

	Create(ctx context.Context, d domain.OrgDraft) (string, error)
	Update(ctx context.Context, id string, p domain.OrgPatch) error
	Move(ctx context.Context, id, targetParentID string, siblingOrder []string) error
	Reorder(ctx context.Context, id, targetID string) error
	Shift(ctx context.Context, id string, delta int) error
	SetStatus(ctx context.Context, id string, status domain.OrgStatus) error
	Delete(ctx context.Context, id string, force bool) error

	Detail(ctx context.Context, id string) (*domain.OrgDetail, error)
	SetActive(ctx context.Context, id string) (*domain.OrgDetail, error)
	Active() *domain.OrgDetail
	ClearActive()

	Impact(ctx context.Context, id string, action domain.ImpactAction) (impact.Summary, error)
}

// RosterService manages primary and auxiliary attachments of users to
// nodes. Non-recursive listings are cached per node and replaced wholesale
// on every fetch.
type RosterService interface {
	List(ctx context.Context, orgID string, recursive bool) ([]domain.DeptUser, error)
	Cached(orgID string) ([]domain.DeptUser, bool)
	State(userID, orgID string) domain.AttachmentState

	SetPrimary(ctx context.Context, userID, orgID string) error
	AddAuxiliary(ctx context.Context, userID, orgID string) error
	RemoveAuxiliary(ctx context.Context, userID, orgID string) error

	CountMembers(ctx context.Context, orgID string) (int, error)
}
