package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spin redraws "<frame> message (elapsed)" on a single line of w until the
// returned stop function is called. stop clears the line and may be called
// more than once.
func Spin(w io.Writer, message string) (stop func()) {
	frames := spinner.MiniDot
	start := time.Now()
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(frames.FPS)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-quit:
				return
			case <-ticker.C:
				frame := frames.Frames[i%len(frames.Frames)]
				fmt.Fprintf(w, "\r\033[K%s %s (%s)", frame, message, elapsed(time.Since(start)))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
			fmt.Fprint(w, "\r\033[K")
		})
	}
}

func elapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
