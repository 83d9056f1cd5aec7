package cli

import tea "github.com/charmbracelet/bubbletea"

// Navigation messages used by views to request view transitions.
// The appModel handles these in its Update method.

// pushViewMsg pushes a new view onto the navigation stack.
type pushViewMsg struct {
	view View
}

// popViewMsg pops the current view off the navigation stack,
// returning to the previous view.
type popViewMsg struct{}

// cmdOutputMsg carries text output from a command execution
// to be displayed transiently in the current view.
type cmdOutputMsg struct {
	output string
}

// wizardCompleteMsg is sent when a wizard form completes or is cancelled.
// The appModel handles it atomically: pop the wizard view, then run nextCmd.
type wizardCompleteMsg struct {
	nextCmd tea.Cmd
}

// refreshViewMsg is broadcast to every view on the stack after the tree
// or a roster changed. focusID, when set, asks the tree to select that node;
// reload asks views to fetch again instead of re-reading local state.
type refreshViewMsg struct {
	focusID string
	reload  bool
}

// noticeMsg replaces the status-bar notice.
type noticeMsg struct {
	text string
}

// mutationResultMsg reports a finished service call. The appModel turns it
// into a notice and a refresh broadcast.
type mutationResultMsg struct {
	success string
	focusID string
	err     error
}

// quitMsg signals the app to quit.
type quitMsg struct{}

// pushView returns a tea.Cmd that pushes a view onto the stack.
func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

// popView returns a tea.Cmd that pops the current view.
func popView() tea.Cmd {
	return func() tea.Msg { return popViewMsg{} }
}

func noticeCmd(text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg{text: text} }
}

func outputCmd(text string) tea.Cmd {
	return func() tea.Msg { return cmdOutputMsg{output: text} }
}

// mutate runs fn off the update loop and reports its outcome.
func mutate(success, focusID string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return mutationResultMsg{success: success, focusID: focusID, err: fn()}
	}
}
