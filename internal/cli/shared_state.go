package cli

import (
	"github.com/alexanderramin/orgctl/internal/tree"
)

// SharedState holds context shared across all views via pointer.
type SharedState struct {
	App *App

	// Presenter owns the session's expanded set; Filter narrows its rows.
	Presenter *tree.Presenter
	Filter    tree.Filter

	// Offline is set when the tree came from a saved snapshot. Mutations
	// are refused until a refresh reaches the service.
	Offline       bool
	OfflineBanner string

	// Terminal dimensions
	Width  int
	Height int

	seq int
}

func newSharedState(app *App) *SharedState {
	return &SharedState{
		App:       app,
		Presenter: tree.NewPresenter(app.Orgs.Store()),
	}
}

// nextSeq tags an asynchronous load. Views keep the latest tag and drop
// results carrying an older one.
func (s *SharedState) nextSeq() int {
	s.seq++
	return s.seq
}

// ContentHeight returns the available height for view content,
// accounting for header (2 lines: title + separator),
// status bar (3 lines: separator + notice + hints), and command bar (1 line).
func (s *SharedState) ContentHeight() int {
	h := s.Height - 6
	if h < 1 {
		return 1
	}
	return h
}
