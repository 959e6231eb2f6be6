//go:build windows

package shim

import (
	"io"
	"os"
)

func linkShim(target, path string) (bool, error) {
	if same(target, path) {
		return false, nil
	}
	_ = os.Remove(path)
	if err := os.Link(target, path); err == nil {
		return true, nil
	}
	return true, copyFile(target, path)
}

func same(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}
