package tui

import "pycors/internal/install"

// StageUpdateMsg sets the status and detail of one stage row.
type StageUpdateMsg struct {
	Stage  install.Stage
	Status string
	Detail string
}

// WorkDoneMsg signals that the install finished; rows still pending are
// marked skipped.
type WorkDoneMsg struct{}

// ErrorMsg signals that the install failed; the TUI quits and leaves the
// final table on screen.
type ErrorMsg struct {
	Err error
}
