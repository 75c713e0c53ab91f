//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

func (p *processHandle) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("interrupt process %s: %w", p.name, err)
	}
	return nil
}

func (p *processHandle) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %s: %w", p.name, err)
	}
	return nil
}

func signaled(exitErr *exec.ExitError) bool {
	// Windows reports forced termination as a plain non-zero exit code, so
	// the expected-shutdown distinction is unavailable here.
	return false
}
