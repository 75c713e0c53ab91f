//go:build !linux && !windows

package sweep

import (
	"bufio"
	"bytes"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// listProcs shells out to ps, which is the portable way to read the process
// table on the BSDs and macOS where /proc is unavailable.
func listProcs() ([]Proc, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, err
	}

	var procs []Proc
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		procs = append(procs, Proc{PID: pid, Comm: fields[1]})
	}
	return procs, scanner.Err()
}

func forceKill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

func alive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
