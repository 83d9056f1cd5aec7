package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	apiErr := &orgclient.APIError{HTTPStatus: 200, Code: orgclient.CodeHasUsers, Message: "organization has members"}

	tests := []struct {
		name string
		err  error
		kind NoticeKind
		msg  string
	}{
		{"nil", nil, "", ""},
		{"validation", &ValidationError{Field: "name", Message: "is required"}, NoticeInline, "is required"},
		{"conflict", conflict(ErrHasChildren, "2", "confirm first"), NoticeBlocking, "node has children; confirm first"},
		{"wrapped api error", fmt.Errorf("delete: %w", apiErr), NoticeToast, "organization has members"},
		{"timeout", fmt.Errorf("get: %w", orgclient.ErrTimeout), NoticeToast, "organization service timed out; try again"},
		{"unavailable", orgclient.ErrUnavailable, NoticeToast, "organization service unavailable; check ORGCTL_BASE_URL"},
		{"decode", orgclient.ErrDecode, NoticeToast, "unexpected response from organization service"},
		{"other", errors.New("boom"), NoticeToast, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Classify(tt.err)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.msg, n.Message)
		})
	}
}

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("create: %w", &ValidationError{Field: "code", Message: "is required"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "create: code: is required", err.Error())
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.OrgDraft
		field string
		msg   string
	}{
		{"missing name", domain.OrgDraft{Code: "c"}, "name", "is required"},
		{"blank code", domain.OrgDraft{Name: "Ops", Code: "  "}, "code", "is required"},
		{"long name", domain.OrgDraft{Name: strings.Repeat("n", 65), Code: "c"}, "name", "must be at most 64 characters"},
		{"negative order", domain.OrgDraft{Name: "Ops", Code: "c", SortOrder: -1}, "sortOrder", "must be 0 or greater"},
		{"bad type", domain.OrgDraft{Name: "Ops", Code: "c", Type: 7}, "type", "must be one of 1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.draft
			err := validateDraft(&d)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, tt.msg, vErr.Message)
		})
	}
}

func TestValidateDraftNormalizes(t *testing.T) {
	d := domain.OrgDraft{Name: "  Ops ", Code: " ops "}
	require.NoError(t, validateDraft(&d))
	assert.Equal(t, "Ops", d.Name)
	assert.Equal(t, "ops", d.Code)
	assert.Equal(t, domain.RootParentID, d.ParentID)
	assert.Equal(t, domain.OrgTypeDepartment, d.Type)
}

func TestValidatePatch(t *testing.T) {
	name := "  Ops  "
	p := domain.OrgPatch{Name: &name}
	require.NoError(t, validatePatch(&p))
	assert.Equal(t, "Ops", *p.Name)
	assert.Equal(t, "  Ops  ", name, "caller's string untouched")

	blank := " "
	err := validatePatch(&domain.OrgPatch{Code: &blank})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "code", vErr.Field)

	cleared := ""
	assert.NoError(t, validatePatch(&domain.OrgPatch{LeaderID: &cleared}))

	status := domain.OrgStatus(3)
	err = validatePatch(&domain.OrgPatch{Status: &status})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)

	assert.ErrorIs(t, validatePatch(&domain.OrgPatch{}), ErrValidation)
}
