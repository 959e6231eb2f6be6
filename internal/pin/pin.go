// Package pin reads and writes the per-project .python-version file.
package pin

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pycors/internal/version"
)

// FileName is the pin file looked up from the working directory upward.
const FileName = ".python-version"

// File is a loaded pin. Path is empty when the specifier came from a fallback.
type File struct {
	Path      string
	Specifier version.Specifier
}

// ErrEmpty is returned when a pin file holds no specifier line.
var ErrEmpty = errors.New("pin file has no version specifier")

// Read parses the first non-blank, non-comment line of path.
func Read(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		spec, err := version.ParseSpecifier(line)
		if err != nil {
			return File{}, fmt.Errorf("%s: %w", path, err)
		}
		return File{Path: path, Specifier: spec}, nil
	}
	if err := scanner.Err(); err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{}, fmt.Errorf("%s: %w", path, ErrEmpty)
}

// Write stores spec in dir's pin file, replacing any previous content
// atomically.
func Write(dir string, spec version.Specifier) (string, error) {
	target := filepath.Join(dir, FileName)
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp pin file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(spec.String() + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write pin file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close pin file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod pin file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publish pin file: %w", err)
	}
	return target, nil
}

// Find walks from start to the filesystem root and returns the path of the
// first pin file found. ok is false when no directory has one.
func Find(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load returns the nearest pin above start, or fallback with an empty Path
// when there is none.
func Load(start string, fallback version.Specifier) (File, error) {
	path, ok := Find(start)
	if !ok {
		return File{Specifier: fallback}, nil
	}
	return Read(path)
}
