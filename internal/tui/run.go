package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// RunWithWork creates a bubbletea program, runs work alongside it, and blocks
// until both have finished. Quitting the program (ctrl+c) cancels the context
// passed to work. The returned error is work's error when it failed.
func RunWithWork(ctx context.Context, out io.Writer, model InstallModel, work func(ctx context.Context, send func(tea.Msg)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		err := work(gctx, p.Send)
		if err != nil {
			p.Send(ErrorMsg{Err: err})
			return err
		}
		p.Send(WorkDoneMsg{})
		return nil
	})

	_, runErr := p.Run()
	killed := ctx.Err() != nil
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil && !killed {
		return runErr
	}
	return nil
}
