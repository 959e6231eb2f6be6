//go:build !windows

package shim

import (
	"os"
	"path/filepath"
)

func linkShim(target, path string) (bool, error) {
	if current, err := os.Readlink(path); err == nil && current == target {
		return false, nil
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}
