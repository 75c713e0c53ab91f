package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/tad-network/tadsim/internal/runtime"
)

type runtimeImpl struct{}

// New constructs a runtime that executes roles as local processes.
func New() runtime.Runtime {
	return &runtimeImpl{}
}

func (r *runtimeImpl) Start(ctx context.Context, spec runtime.StartSpec) (runtime.Handle, error) {
	if spec.Binary == "" {
		return nil, fmt.Errorf("process runtime for %s requires a binary", spec.Name)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The context only gates the spawn. The child's lifetime belongs to the
	// Terminate/Kill escalation: binding it to the context would have
	// cancellation SIGKILL the child before the graceful signal is sent.
	cmd := exec.Command(spec.Binary, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	env := os.Environ()
	if len(spec.Env) > 0 {
		env = append(env, spec.Env...)
	}
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdout: %w", spec.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stderr: %w", spec.Name, err)
	}

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	inst := &processHandle{
		name:     spec.Name,
		cmd:      cmd,
		logs:     make(chan runtime.LogEntry, 64),
		waitDone: make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go inst.streamLogs(stdout, runtime.LogSourceStdout, &wg)
	go inst.streamLogs(stderr, runtime.LogSourceStderr, &wg)
	go func() {
		// Drain the pipes before reaping; Wait closes them and would
		// discard any buffered tail output.
		wg.Wait()
		close(inst.logs)
		inst.waitErr = cmd.Wait()
		close(inst.waitDone)
	}()

	return inst, nil
}

type processHandle struct {
	name     string
	cmd      *exec.Cmd
	logs     chan runtime.LogEntry
	waitDone chan struct{}
	waitErr  error
}

func (p *processHandle) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *processHandle) Wait(ctx context.Context) error {
	select {
	case <-p.waitDone:
		return p.exitError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *processHandle) Logs() <-chan runtime.LogEntry {
	return p.logs
}

func (p *processHandle) exitError() error {
	if p.waitErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		// Death by our own termination signal is the expected shutdown
		// outcome, not a failure.
		if signaled(exitErr) {
			return nil
		}
	}
	return fmt.Errorf("%s exited: %w", p.name, p.waitErr)
}

func (p *processHandle) streamLogs(r io.Reader, source string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		entry := runtime.LogEntry{Message: line, Source: source}
		if source == runtime.LogSourceStderr {
			entry.Level = "warn"
		}
		p.logs <- entry
	}
}
