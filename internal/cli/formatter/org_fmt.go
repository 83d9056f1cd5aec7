package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/tree"
)

// TreeLabel renders a node name with its expand marker. Disabled nodes are dimmed.
func TreeLabel(r tree.Row) string {
	marker := "  "
	if r.HasChildren {
		marker = "▸ "
		if r.Expanded {
			marker = "▾ "
		}
	}
	name := r.Node.Name
	if r.Node.Enabled() {
		name = StyleFg.Render(name)
	} else {
		name = Dim(name + " (disabled)")
	}
	return Dim(marker) + name + " " + Dim(r.Node.Code)
}

// TreeBadge summarizes type, members and leader of a node.
func TreeBadge(n domain.OrgNode) string {
	parts := []string{TypeBadge(n.Type)}
	if n.MemberCount > 0 {
		parts = append(parts, StyleBlue.Render(Plural(n.MemberCount, "member")))
	}
	if n.LeaderName != "" {
		parts = append(parts, StyleYellow.Render("★ "+n.LeaderName))
	}
	return strings.Join(parts, Dim(" · "))
}

// FormatTree renders visible rows as an indented tree.
func FormatTree(rows []tree.Row) string {
	if len(rows) == 0 {
		return Dim("No organizations.") + "\n"
	}
	items := make([]TreeItem, len(rows))
	for i, r := range rows {
		items[i] = TreeItem{Label: TreeLabel(r), Level: r.Depth, Badge: TreeBadge(r.Node)}
	}
	return RenderTree(items)
}

// FormatStats renders the KPI line shown above the tree.
func FormatStats(st tree.Stats) string {
	return strings.Join([]string{
		Bold(strconv.Itoa(st.Total)) + Dim(" nodes"),
		StyleGreen.Render(strconv.Itoa(st.Enabled)) + Dim(" enabled"),
		StyleDim.Render(strconv.Itoa(st.Disabled)) + Dim(" disabled"),
		StyleBlue.Render(strconv.Itoa(st.Members)) + Dim(" members"),
		StyleYellow.Render(strconv.Itoa(st.WithoutLeader)) + Dim(" without leader"),
	}, Dim("  │  "))
}

// FormatDetail renders one node with its path and timestamps.
func FormatDetail(d *domain.OrgDetail, path []string) string {
	field := func(label, value string) string {
		if value == "" {
			value = Dim("—")
		}
		return fmt.Sprintf("%s %s", Dim(fmt.Sprintf("%-12s", label)), value)
	}
	leader := d.LeaderName
	if d.LeaderID != "" {
		leader = strings.TrimSpace(fmt.Sprintf("%s (%s)", d.LeaderName, d.LeaderID))
	}
	parent := d.ParentName
	if d.IsRoot() {
		parent = Dim("(root)")
	}
	lines := []string{
		field("ID", d.ID),
		field("Code", d.Code),
		field("Type", d.Type.String()),
		field("Status", StatusPill(d.Status)),
		field("Parent", parent),
		field("Path", strings.Join(path, " / ")),
		field("Leader", leader),
		field("Members", strconv.Itoa(d.MemberCount)),
		field("Region", d.Region),
		field("Sort order", strconv.Itoa(d.SortOrder)),
	}
	if d.Type == domain.OrgTypeDepartment {
		main := "no"
		if d.IsMainDepartment {
			main = "yes"
		}
		lines = append(lines, field("Main dept", main))
	}
	if !d.CreatedAt.IsZero() {
		lines = append(lines, field("Created", d.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if !d.UpdatedAt.IsZero() {
		lines = append(lines, field("Updated", d.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	if d.Description != "" {
		lines = append(lines, "", d.Description)
	}
	return RenderBox(d.Name, strings.Join(lines, "\n"))
}

// FormatImpact renders an impact summary and its risk level.
func FormatImpact(s impact.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s %s\n", RiskIndicator(s.Level), Bold(s.NodeName), Dim("("+string(s.Action)+")"))
	fmt.Fprintf(&b, "  %s\n", s.Describe())
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "  %s\n", StyleYellow.Render("! "+w))
	}
	if s.RequiresConfirmation() {
		fmt.Fprintf(&b, "  %s\n", Dim("confirmation required"))
	}
	return b.String()
}
