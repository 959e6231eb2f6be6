//go:build windows

package build

import "os/exec"

// killProcessTree keeps the default cancellation; Windows installs only run
// ensurepip inside the unpacked payload, and WaitDelay bounds stray
// children.
func killProcessTree(cmd *exec.Cmd) {}
