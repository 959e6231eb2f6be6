package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	units "github.com/docker/go-units"

	"pycors/internal/fetch"
	"pycors/internal/install"
)

// InstallReporter turns installer events and download progress into row
// updates. Download updates are coalesced to whole-percent steps.
type InstallReporter struct {
	send func(tea.Msg)

	mu      sync.Mutex
	lastPct int
	lastMiB int64
}

// NewInstallReporter wraps a tea.Program send function.
func NewInstallReporter(send func(tea.Msg)) *InstallReporter {
	return &InstallReporter{send: send, lastPct: -1, lastMiB: -1}
}

// Event implements the Installer.Events callback.
func (r *InstallReporter) Event(ev install.Event) {
	status, detail := eventFields(ev)
	r.send(StageUpdateMsg{Stage: ev.Stage, Status: status, Detail: detail})
}

// Download implements the fetch.Options.Progress callback.
func (r *InstallReporter) Download(p fetch.Progress) {
	r.mu.Lock()
	if p.Total > 0 {
		pct := int(p.Received * 100 / p.Total)
		if pct == r.lastPct {
			r.mu.Unlock()
			return
		}
		r.lastPct = pct
	} else {
		mib := p.Received >> 20
		if mib == r.lastMiB {
			r.mu.Unlock()
			return
		}
		r.lastMiB = mib
	}
	r.mu.Unlock()

	r.send(StageUpdateMsg{Stage: install.StageFetch, Status: StatusRunning, Detail: DownloadDetail(p)})
}

// DownloadDetail renders received/total byte counts.
func DownloadDetail(p fetch.Progress) string {
	if p.Total <= 0 {
		return units.BytesSize(float64(p.Received))
	}
	return fmt.Sprintf("%s / %s (%d%%)",
		units.BytesSize(float64(p.Received)),
		units.BytesSize(float64(p.Total)),
		p.Received*100/p.Total)
}

func eventFields(ev install.Event) (string, string) {
	switch {
	case !ev.Done:
		return StatusRunning, ev.Detail
	case ev.Err != nil && ev.Stage == install.StagePackages, ev.Err != nil && ev.Stage == install.StageShims:
		return StatusWarning, ev.Err.Error()
	case ev.Err != nil:
		return StatusFailed, ev.Err.Error()
	default:
		return StatusDone, ev.Detail
	}
}

// PlainReporter writes one line per finished stage, for non-interactive output.
type PlainReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPlainReporter writes stage lines to w.
func NewPlainReporter(w io.Writer) *PlainReporter {
	return &PlainReporter{w: w}
}

// Event implements the Installer.Events callback.
func (r *PlainReporter) Event(ev install.Event) {
	if !ev.Done {
		return
	}
	status, detail := eventFields(ev)
	r.mu.Lock()
	defer r.mu.Unlock()
	if detail == "" {
		fmt.Fprintf(r.w, "python %s: %-8s %s\n", ev.Version, ev.Stage, status)
		return
	}
	fmt.Fprintf(r.w, "python %s: %-8s %s (%s)\n", ev.Version, ev.Stage, status, detail)
}
