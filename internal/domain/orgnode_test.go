package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRootParent(t *testing.T) {
	assert.True(t, IsRootParent(""))
	assert.True(t, IsRootParent("0"))
	assert.False(t, IsRootParent("1"))
}

func TestOrgDraft_Normalize(t *testing.T) {
	d := OrgDraft{Name: "  Sales ", Code: " sales ", Type: OrgTypeOrganization, IsMainDepartment: true}
	d.Normalize()
	assert.Equal(t, "Sales", d.Name)
	assert.Equal(t, "sales", d.Code)
	assert.Equal(t, RootParentID, d.ParentID)
	assert.False(t, d.IsMainDepartment, "only departments can be main departments")

	d2 := OrgDraft{Name: "x", Code: "x"}
	d2.Normalize()
	assert.Equal(t, OrgTypeDepartment, d2.Type)
}

func TestOrgPatch_IsEmptyAndClearsLeader(t *testing.T) {
	var p OrgPatch
	assert.True(t, p.IsEmpty())
	assert.False(t, p.ClearsLeader())

	p.LeaderID = StrPtr("")
	assert.False(t, p.IsEmpty())
	assert.True(t, p.ClearsLeader())

	p.LeaderID = StrPtr("u1")
	assert.False(t, p.ClearsLeader())
}

func TestOrgDetail_AncestorIDs(t *testing.T) {
	d := OrgDetail{Ancestors: "0,1, 5,"}
	assert.Equal(t, []string{"1", "5"}, d.AncestorIDs())

	empty := OrgDetail{}
	assert.Empty(t, empty.AncestorIDs())
}

func TestSuggestCode(t *testing.T) {
	assert.Equal(t, "sales_east", SuggestCode("Sales - East"))
	assert.Equal(t, "r_d_2", SuggestCode("  R&D 2 "))

	code := SuggestCode("研发部")
	require.True(t, strings.HasPrefix(code, "org_"))
	assert.Len(t, code, len("org_")+8)

	long := SuggestCode(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len(long), 64)
	assert.False(t, strings.HasSuffix(long, "_"))
}

func TestParseEnums(t *testing.T) {
	typ, err := ParseOrgType("Department")
	require.NoError(t, err)
	assert.Equal(t, OrgTypeDepartment, typ)
	_, err = ParseOrgType("team")
	assert.Error(t, err)

	st, err := ParseOrgStatus("0")
	require.NoError(t, err)
	assert.Equal(t, OrgDisabled, st)
	assert.Equal(t, "enabled", OrgEnabled.String())

	tri, err := ParseTriState("yes")
	require.NoError(t, err)
	assert.True(t, tri.Matches(true))
	assert.False(t, tri.Matches(false))
	assert.True(t, TriAny.Matches(false))
	_, err = ParseTriState("maybe")
	assert.Error(t, err)
}

func TestDeptUser_State(t *testing.T) {
	assert.Equal(t, Primary, DeptUser{IsPrimary: true}.State())
	assert.Equal(t, Auxiliary, DeptUser{}.State())
}
