package runtime

import "context"

// Log sources attached to entries streamed from managed processes.
const (
	LogSourceStdout = "stdout"
	LogSourceStderr = "stderr"
	LogSourceSystem = "system"
)

// LogEntry is a single line captured from a managed process.
type LogEntry struct {
	Message string
	Source  string
	Level   string
}

// StartSpec describes a process to launch.
type StartSpec struct {
	Name   string
	Binary string
	Args   []string
	Dir    string
	Env    []string
}

// Handle represents a launched process owned by the supervisor.
type Handle interface {
	// PID returns the operating system identifier of the direct child.
	PID() int

	// Terminate delivers a graceful termination signal to the process
	// group. A process that already exited is not an error.
	Terminate() error

	// Kill forcefully terminates the process group. A process that already
	// exited is not an error.
	Kill() error

	// Wait blocks until the process has exited or the context is cancelled.
	// It is safe to call from multiple goroutines.
	Wait(ctx context.Context) error

	// Logs returns a channel of captured output lines. The channel is
	// closed once the process has exited and its pipes are drained.
	Logs() <-chan LogEntry
}

// Runtime launches processes on behalf of the supervisor.
type Runtime interface {
	// Start launches the described process and returns a handle to it.
	// Implementations must respect context cancellation during spawn and
	// surface failures via returned errors.
	Start(ctx context.Context, spec StartSpec) (Handle, error)
}
