package formatter

import (
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
)

// FormatJournal renders journal entries newest first.
func FormatJournal(entries []*domain.JournalEntry, now time.Time) string {
	if len(entries) == 0 {
		return Dim("Journal is empty.") + "\n"
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		outcome := StyleGreen.Render("ok")
		if e.Outcome == domain.OutcomeFailed {
			outcome = StyleRed.Render("failed")
		}
		rows[i] = []string{
			HumanTimestamp(e.CreatedAt, now),
			string(e.Operation),
			e.OrgID,
			e.UserID,
			e.Operator,
			outcome,
			Truncate(e.Message, 60),
		}
	}
	return RenderTable([]string{"When", "Operation", "Org", "User", "Operator", "Outcome", "Message"}, rows)
}
