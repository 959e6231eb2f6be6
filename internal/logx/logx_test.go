package logx

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", false)
	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown 2") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "pycors") {
		t.Fatalf("expected prefix in %q", out)
	}

	buf.Reset()
	New(&buf, "warn", true).Debugf("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Fatalf("verbose should enable debug, got %q", buf.String())
	}
}

func TestNewUnknownLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chatty", false)
	logger.Infof("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected warn level, got %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	OrNop(nil).Warnf("dropped %s", "silently")
	var buf bytes.Buffer
	var l Logger = New(&buf, "debug", false)
	if OrNop(l) != l {
		t.Fatal("non-nil logger should pass through")
	}
}

func TestOpenFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	file, err := OpenFile(dir, "install-3.7.2")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString("configure\n"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(file.Name()), "install-3.7.2-") || filepath.Ext(file.Name()) != ".log" {
		t.Fatalf("unexpected name %s", file.Name())
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file: %v %v", entries, err)
	}
}
