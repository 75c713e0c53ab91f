// Package process launches node role binaries as local child processes.
//
// Full process-group termination is only guaranteed on Linux, where the
// runtime can rely on the operating system's job-control semantics to deliver
// signals to every member of the child process group. On macOS the semantics
// are best effort but usually equivalent. On Windows there is no process
// group to target: Terminate and Kill reach only the direct child, and any
// grandchildren are left for the supervisor's name-based sweep.
package process
