//go:build !windows

package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

func (p *processHandle) Terminate() error {
	return p.signalGroup(syscall.SIGTERM)
}

func (p *processHandle) Kill() error {
	return p.signalGroup(syscall.SIGKILL)
}

// signalGroup targets the whole process group. Children are spawned with
// Setpgid, so pgid == pid and a negative pid reaches any grandchildren too.
func (p *processHandle) signalGroup(sig syscall.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-p.cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal process group %s: %w", p.name, err)
	}
	return nil
}

func signaled(exitErr *exec.ExitError) bool {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return false
	}
	if !status.Signaled() {
		return false
	}
	switch status.Signal() {
	case syscall.SIGTERM, syscall.SIGKILL, syscall.SIGINT:
		return true
	}
	return false
}
