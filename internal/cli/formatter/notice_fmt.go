package formatter

import "github.com/alexanderramin/orgctl/internal/service"

// FormatNotice renders a classified error for a status line.
func FormatNotice(n service.Notice) string {
	switch n.Kind {
	case service.NoticeInline:
		if n.Field != "" {
			return StyleYellow.Render("✎ " + n.Field + ": " + n.Message)
		}
		return StyleYellow.Render("✎ " + n.Message)
	case service.NoticeBlocking:
		return StyleRed.Render("✖ " + n.Message)
	case service.NoticeToast:
		return StyleYellow.Render("! " + n.Message)
	}
	return ""
}

// Success renders a confirmation line.
func Success(msg string) string {
	return StyleGreen.Render("✔ ") + msg
}
