package orgclient

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
)

// flexInt decodes numbers that some deployments send as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// envelope holds the status fields that may accompany any response body.
type envelope struct {
	Code        flexInt `json:"code"`
	Msg         string  `json:"msg"`
	Message     string  `json:"message"`
	Description string  `json:"description"`
	Error       string  `json:"error"`
}

type treeNode struct {
	ID               string     `json:"id"`
	ParentID         string     `json:"parentId"`
	Name             string     `json:"name"`
	Code             string     `json:"code"`
	Type             flexInt    `json:"type"`
	Status           flexInt    `json:"status"`
	SortOrder        flexInt    `json:"sortOrder"`
	LeaderID         string     `json:"leaderId"`
	LeaderName       string     `json:"leaderName"`
	Desc             string     `json:"desc"`
	Region           string     `json:"region"`
	IsMainDepartment bool       `json:"isMainDepartment"`
	MemberCount      flexInt    `json:"memberCount"`
	Children         []treeNode `json:"children"`
}

func (n treeNode) toDomain() domain.OrgNode {
	return domain.OrgNode{
		ID:               n.ID,
		ParentID:         n.ParentID,
		Name:             n.Name,
		Code:             n.Code,
		Type:             domain.OrgType(n.Type),
		Status:           domain.OrgStatus(n.Status),
		SortOrder:        int(n.SortOrder),
		LeaderID:         n.LeaderID,
		LeaderName:       n.LeaderName,
		Description:      n.Desc,
		Region:           n.Region,
		IsMainDepartment: n.IsMainDepartment,
		MemberCount:      int(n.MemberCount),
	}
}

// flattenTree lists nodes parent-first in received order. Children whose
// parentId is missing inherit it from their position in the nesting.
func flattenTree(nodes []treeNode) []domain.OrgNode {
	var out []domain.OrgNode
	var walk func(list []treeNode, parentID string)
	walk = func(list []treeNode, parentID string) {
		for _, n := range list {
			d := n.toDomain()
			if d.ParentID == "" {
				d.ParentID = parentID
			}
			out = append(out, d)
			walk(n.Children, d.ID)
		}
	}
	walk(nodes, domain.RootParentID)
	return out
}

type treeResponse struct {
	Tree []treeNode `json:"tree"`
}

type orgDetail struct {
	treeNode
	ParentName string `json:"parentName"`
	Ancestors  string `json:"ancestors"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func (d orgDetail) toDomain() *domain.OrgDetail {
	return &domain.OrgDetail{
		OrgNode:    d.treeNode.toDomain(),
		ParentName: d.ParentName,
		Ancestors:  d.Ancestors,
		CreatedAt:  parseTimestamp(d.CreatedAt),
		UpdatedAt:  parseTimestamp(d.UpdatedAt),
	}
}

type detailResponse struct {
	Detail orgDetail `json:"detail"`
}

var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// parseTimestamp accepts the formats the service has been seen to emit and
// returns the zero time otherwise.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type createRequest struct {
	ParentID         string `json:"parentId"`
	Name             string `json:"name"`
	Code             string `json:"code"`
	Type             int    `json:"type"`
	SortOrder        int    `json:"sortOrder"`
	LeaderID         string `json:"leaderId,omitempty"`
	Desc             string `json:"desc,omitempty"`
	Region           string `json:"region,omitempty"`
	IsMainDepartment bool   `json:"isMainDepartment,omitempty"`
}

func newCreateRequest(d domain.OrgDraft) createRequest {
	return createRequest{
		ParentID:         d.ParentID,
		Name:             d.Name,
		Code:             d.Code,
		Type:             int(d.Type),
		SortOrder:        d.SortOrder,
		LeaderID:         d.LeaderID,
		Desc:             d.Description,
		Region:           d.Region,
		IsMainDepartment: d.IsMainDepartment,
	}
}

type createResponse struct {
	ID string `json:"id"`
}

// updateBody encodes only the fields present in the patch. A cleared
// leader is sent as an explicit empty string. The parent is never part of
// an update; reparenting goes through Move.
func updateBody(p domain.OrgPatch) map[string]any {
	body := make(map[string]any)
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Code != nil {
		body["code"] = *p.Code
	}
	if p.Type != nil {
		body["type"] = int(*p.Type)
	}
	if p.Status != nil {
		body["status"] = int(*p.Status)
	}
	if p.SortOrder != nil {
		body["sortOrder"] = *p.SortOrder
	}
	if p.LeaderID != nil {
		body["leaderId"] = *p.LeaderID
	}
	if p.Description != nil {
		body["desc"] = *p.Description
	}
	if p.Region != nil {
		body["region"] = *p.Region
	}
	if p.IsMainDepartment != nil {
		body["isMainDepartment"] = *p.IsMainDepartment
	}
	return body
}

// MoveRequest places ID under TargetParentID. SortOrders lists every
// sibling id under the target parent in the desired order.
type MoveRequest struct {
	ID             string   `json:"id"`
	TargetParentID string   `json:"targetParentId"`
	SortOrders     []string `json:"sortOrders,omitempty"`
}

type deptUser struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	IsPrimary bool   `json:"isPrimary"`
}

type usersResponse struct {
	Users []deptUser `json:"users"`
}

type userDeptRequest struct {
	UserID string `json:"userId"`
	DeptID string `json:"deptId"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// TreeQuery filters the server-side tree fetch.
type TreeQuery struct {
	Name   string
	Status *domain.OrgStatus
}

func (q TreeQuery) params() map[string]string {
	params := make(map[string]string)
	if q.Name != "" {
		params["name"] = q.Name
	}
	if q.Status != nil {
		params["status"] = strconv.Itoa(int(*q.Status))
	}
	return params
}

func decodeInto(body []byte, out any) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
