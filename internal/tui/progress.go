package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pycors/internal/install"
	"pycors/internal/version"
)

// InstallStages lists the table rows in pipeline order.
var InstallStages = []install.Stage{
	install.StageLock,
	install.StageFetch,
	install.StageExtract,
	install.StageBuild,
	install.StagePublish,
	install.StagePackages,
	install.StageShims,
}

var (
	stageCell  = lipgloss.NewStyle().Width(10)
	statusCell = lipgloss.NewStyle().Width(9)
)

type stageRow struct {
	stage  install.Stage
	status string
	detail string
}

// InstallModel renders one row per install stage of a single version.
type InstallModel struct {
	version version.Version
	rows    []stageRow
	spinner spinner.Model
	done    bool
	err     error
}

// NewInstallModel creates the table with every stage pending.
func NewInstallModel(v version.Version) InstallModel {
	rows := make([]stageRow, len(InstallStages))
	for i, stage := range InstallStages {
		rows[i] = stageRow{stage: stage, status: StatusPending}
	}
	return InstallModel{
		version: v,
		rows:    rows,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
}

func (m InstallModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m InstallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StageUpdateMsg:
		for i := range m.rows {
			if m.rows[i].stage == msg.Stage {
				m.rows[i].status = msg.Status
				m.rows[i].detail = msg.Detail
			}
		}
		return m, nil

	case WorkDoneMsg:
		return m.finish(nil), tea.Quit

	case ErrorMsg:
		return m.finish(msg.Err), tea.Quit

	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// finish stops the spinner and marks stages that never started as skipped.
func (m InstallModel) finish(err error) InstallModel {
	rows := make([]stageRow, len(m.rows))
	copy(rows, m.rows)
	for i := range rows {
		if rows[i].status == StatusPending {
			rows[i].status = StatusSkipped
		}
	}
	m.rows = rows
	m.err = err
	m.done = true
	return m
}

func (m InstallModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("python " + m.version.String()))
	b.WriteByte('\n')
	b.WriteString(HeaderStyle.Render(stageCell.Render("STAGE") + statusCell.Render("STATUS") + "DETAIL"))
	b.WriteByte('\n')
	for _, row := range m.rows {
		line := stageCell.Render(string(row.stage)) + StatusStyle(row.status).Inherit(statusCell).Render(row.status) + row.detail
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "\n%s\n", StatusStyle(StatusFailed).Render("install failed"))
	case !m.done:
		finished, total := m.progress()
		fmt.Fprintf(&b, "\n%s installing %d/%d\n", m.spinner.View(), finished, total)
	}
	return b.String()
}

// progress counts stages that reached a final status.
func (m InstallModel) progress() (int, int) {
	finished := 0
	for _, row := range m.rows {
		if row.status != StatusPending && row.status != StatusRunning {
			finished++
		}
	}
	return finished, len(m.rows)
}

func (m InstallModel) Done() bool { return m.done }

func (m InstallModel) Err() error { return m.err }
