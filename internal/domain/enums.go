package domain

import (
	"fmt"
	"strings"
)

// OrgType distinguishes top-level organizations from departments.
// The numeric values match the organization service wire format.
type OrgType int

const (
	OrgTypeOrganization OrgType = 1
	OrgTypeDepartment   OrgType = 2
)

func (t OrgType) String() string {
	switch t {
	case OrgTypeOrganization:
		return "organization"
	case OrgTypeDepartment:
		return "department"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseOrgType accepts the names printed by String as well as the raw numbers.
func ParseOrgType(s string) (OrgType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "organization", "org", "1":
		return OrgTypeOrganization, nil
	case "department", "dept", "2":
		return OrgTypeDepartment, nil
	}
	return 0, fmt.Errorf("unknown org type %q (want organization|department)", s)
}

type OrgStatus int

const (
	OrgDisabled OrgStatus = 0
	OrgEnabled  OrgStatus = 1
)

func (s OrgStatus) String() string {
	if s == OrgEnabled {
		return "enabled"
	}
	return "disabled"
}

func ParseOrgStatus(s string) (OrgStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enabled", "enable", "1":
		return OrgEnabled, nil
	case "disabled", "disable", "0":
		return OrgDisabled, nil
	}
	return 0, fmt.Errorf("unknown status %q (want enabled|disabled)", s)
}

type RiskLevel string

const (
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

// ImpactAction names the destructive operation an impact summary describes.
type ImpactAction string

const (
	ActionDeactivate ImpactAction = "deactivate"
	ActionDelete     ImpactAction = "delete"
)

// ValidImpactActions is the canonical set of accepted impact action strings.
var ValidImpactActions = map[string]bool{
	"deactivate": true, "delete": true,
}

// AttachmentState describes how a user is attached to an organization node.
type AttachmentState string

const (
	Unattached AttachmentState = "unattached"
	Auxiliary  AttachmentState = "auxiliary"
	Primary    AttachmentState = "primary"
)

// Operation identifies a journaled mutation.
type Operation string

const (
	OpCreate          Operation = "create"
	OpUpdate          Operation = "update"
	OpMove            Operation = "move"
	OpSetStatus       Operation = "set_status"
	OpDelete          Operation = "delete"
	OpSetPrimary      Operation = "set_primary"
	OpAddAuxiliary    Operation = "add_auxiliary"
	OpRemoveAuxiliary Operation = "remove_auxiliary"
)

type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// TriState is a yes/no/any filter switch.
type TriState string

const (
	TriAny TriState = ""
	TriYes TriState = "yes"
	TriNo  TriState = "no"
)

func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return TriAny, nil
	case "yes", "y", "true":
		return TriYes, nil
	case "no", "n", "false":
		return TriNo, nil
	}
	return TriAny, fmt.Errorf("unknown filter value %q (want yes|no|all)", s)
}

// Matches reports whether a boolean property satisfies the filter.
func (t TriState) Matches(v bool) bool {
	switch t {
	case TriYes:
		return v
	case TriNo:
		return !v
	default:
		return true
	}
}
