package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/orgclient"
)

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("invalid input")

	// ErrHasChildren is returned when a node with children is deleted without force.
	ErrHasChildren = errors.New("node has children")

	// ErrPrimaryRemoval is returned when an auxiliary removal targets a primary attachment.
	ErrPrimaryRemoval = errors.New("cannot remove a primary attachment")

	// ErrCrossParentMove is returned when a drag reorder targets another parent.
	ErrCrossParentMove = errors.New("moving across parents is not supported")

	// ErrCycle is returned when a reparent would place a node under itself.
	ErrCycle = errors.New("cannot move a node under itself or its descendants")

	// ErrNotFound is returned for ids missing from the loaded tree.
	ErrNotFound = errors.New("organization not found")
)

// ValidationError is a field-level input error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError is a structural conflict detected against the loaded tree
// or roster. Guidance tells the operator how to proceed.
type ConflictError struct {
	Err      error
	NodeID   string
	Guidance string
}

func (e *ConflictError) Error() string {
	if e.Guidance == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "; " + e.Guidance
}

func (e *ConflictError) Unwrap() error { return e.Err }

func conflict(err error, nodeID, guidance string) error {
	return &ConflictError{Err: err, NodeID: nodeID, Guidance: guidance}
}

func notFound(id string) error {
	return conflict(ErrNotFound, id, fmt.Sprintf("no organization with id %q in the loaded tree; refresh and retry", id))
}

// NoticeKind selects how a failure is presented.
type NoticeKind string

const (
	NoticeInline   NoticeKind = "inline"
	NoticeBlocking NoticeKind = "blocking"
	NoticeToast    NoticeKind = "toast"
)

// Notice is the presentation of an error: inline next to a form field,
// a blocking message that must be acknowledged, or a transient toast.
type Notice struct {
	Kind    NoticeKind
	Field   string
	Message string
}

// Classify maps any error returned by this package or the org client to a
// Notice. A nil error yields the zero Notice.
func Classify(err error) Notice {
	if err == nil {
		return Notice{}
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return Notice{Kind: NoticeInline, Field: vErr.Field, Message: vErr.Message}
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return Notice{Kind: NoticeBlocking, Message: cErr.Error()}
	}
	var apiErr *orgclient.APIError
	if errors.As(err, &apiErr) {
		return Notice{Kind: NoticeToast, Message: apiErr.Message}
	}
	switch {
	case errors.Is(err, orgclient.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Notice{Kind: NoticeToast, Message: "organization service timed out; try again"}
	case errors.Is(err, orgclient.ErrUnavailable):
		return Notice{Kind: NoticeToast, Message: "organization service unavailable; check ORGCTL_BASE_URL"}
	case errors.Is(err, orgclient.ErrDecode):
		return Notice{Kind: NoticeToast, Message: "unexpected response from organization service"}
	}
	return Notice{Kind: NoticeToast, Message: err.Error()}
}

// validationMessage renders validator tags as operator-facing text.
func validationMessage(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + param + " characters"
	case "gte":
		return "must be " + param + " or greater"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "is invalid"
	}
}
