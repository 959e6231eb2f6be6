package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode selects how install progress is shown.
type OutputMode int

const (
	ModeTUI OutputMode = iota
	ModePlain
	ModeJSON
)

// DetectMode picks JSON when requested, the live table on an interactive
// terminal, and plain stage lines otherwise. Verbose runs stay plain so debug
// logging is not drawn over.
func DetectMode(out io.Writer, verbose, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case verbose || !interactive(out):
		return ModePlain
	default:
		return ModeTUI
	}
}

func interactive(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if fd := f.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && !strings.EqualFold(term, "dumb")
}
