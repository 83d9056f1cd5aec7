package formatter

import (
	"fmt"

	"github.com/alexanderramin/orgctl/internal/domain"
)

func AttachmentPill(s domain.AttachmentState) string {
	switch s {
	case domain.Primary:
		return StyleGreen.Render("primary")
	case domain.Auxiliary:
		return StyleBlue.Render("auxiliary")
	default:
		return Dim(string(s))
	}
}

// FormatMembers renders a roster listing as a table.
func FormatMembers(orgName string, users []domain.DeptUser) string {
	if len(users) == 0 {
		return Dim(fmt.Sprintf("No members in %s.", orgName)) + "\n"
	}
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{u.UserID, u.UserName, AttachmentPill(u.State())}
	}
	return Header(orgName+" members") + "\n" + RenderTable([]string{"User", "Name", "Attachment"}, rows)
}
