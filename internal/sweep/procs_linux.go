//go:build linux

package sweep

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// listProcs reads the live process table from /proc, reporting each PID with
// the command name from /proc/[pid]/comm. Entries that disappear mid-scan
// are skipped.
func listProcs() ([]Proc, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	procs := make([]Proc, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			continue
		}
		procs = append(procs, Proc{PID: pid, Comm: strings.TrimSpace(string(comm))})
	}
	return procs, nil
}

func forceKill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

func alive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
