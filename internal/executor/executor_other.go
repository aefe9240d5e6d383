//go:build !unix

package executor

import (
	"os"
	"os/exec"
)

// Without process groups only the target itself is killed.
func setProcessGroup(cmd *exec.Cmd) {}

func killGroup(pid int) {}

// dupFile returns f itself; the caller must keep it open until the fake
// command finishes.
func dupFile(f *os.File) (*os.File, error) {
	return f, nil
}
