// Package sweep kills leftover simulation processes by binary name.
//
// The sweep is best effort and deliberately coarse: it matches command names
// host-wide, so an unrelated process that happens to share a tracked binary
// name will be killed too. The supervisor narrows the blast radius by
// signalling its own process groups and registry-recorded PIDs first; the
// name sweep is the final backstop for untracked survivors from crashed runs.
package sweep

import (
	"os"
	"path/filepath"
	"strings"
)

// Proc is one candidate process observed on the host.
type Proc struct {
	PID  int
	Comm string
}

// Sweeper matches host processes against a set of binary names and
// force-kills them, excluding the launcher's own process and its parent.
type Sweeper struct {
	names []string

	exclude map[int]struct{}
	list    func() ([]Proc, error)
	kill    func(pid int) error
}

// New constructs a sweeper for the provided binary names.
func New(names ...string) *Sweeper {
	return &Sweeper{
		names: append([]string(nil), names...),
		exclude: map[int]struct{}{
			os.Getpid():  {},
			os.Getppid(): {},
		},
		list: listProcs,
		kill: forceKill,
	}
}

// Run enumerates the host process table and force-kills every match. The
// returned slice holds the processes that were signalled. Extra identifiers
// extend the built-in self/parent exclusions; the shutdown path passes its
// tracked PIDs so the backstop only reaps what was never recorded. Processes
// that vanish between listing and signalling are tolerated silently; an
// empty result is not an error.
func (s *Sweeper) Run(exclude ...int) ([]Proc, error) {
	procs, err := s.list()
	if err != nil {
		return nil, err
	}

	skip := make(map[int]struct{}, len(s.exclude)+len(exclude))
	for pid := range s.exclude {
		skip[pid] = struct{}{}
	}
	for _, pid := range exclude {
		skip[pid] = struct{}{}
	}

	var killed []Proc
	for _, proc := range procs {
		if _, own := skip[proc.PID]; own {
			continue
		}
		if !s.matches(proc.Comm) {
			continue
		}
		if err := s.kill(proc.PID); err != nil {
			// Gone between listing and signalling.
			continue
		}
		killed = append(killed, proc)
	}
	return killed, nil
}

// Kill force-kills a single process by identifier.
func Kill(pid int) error {
	return forceKill(pid)
}

// Alive reports whether a process with the given identifier still exists.
func Alive(pid int) bool {
	return alive(pid)
}

func (s *Sweeper) matches(comm string) bool {
	base := filepath.Base(comm)
	for _, name := range s.names {
		if base == name {
			return true
		}
		// /proc comm is truncated to 15 characters; accept a truncated
		// prefix of a tracked name.
		if len(base) == commLen && strings.HasPrefix(name, base) {
			return true
		}
	}
	return false
}

// commLen is the kernel's TASK_COMM_LEN minus the NUL terminator.
const commLen = 15
