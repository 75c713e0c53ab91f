// Package launcher owns the lifecycle of the simulated network: the ordered
// startup of the role processes, the record of everything it spawned, and the
// signal-triggered teardown of the whole group.
package launcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tad-network/tadsim/internal/config"
	"github.com/tad-network/tadsim/internal/metrics"
	"github.com/tad-network/tadsim/internal/probe"
	"github.com/tad-network/tadsim/internal/registry"
	"github.com/tad-network/tadsim/internal/runtime"
	"github.com/tad-network/tadsim/internal/sweep"
	"github.com/tad-network/tadsim/internal/topology"
)

// State is the supervisor's signal disposition. It transitions from Running
// to Terminating exactly once per run and never back.
type State int32

const (
	StateRunning State = iota
	StateTerminating
)

// Sweeper kills leftover processes by name, sparing any extra excluded
// identifiers. Satisfied by *sweep.Sweeper.
type Sweeper interface {
	Run(exclude ...int) ([]sweep.Proc, error)
}

// Options configures a Supervisor.
type Options struct {
	Runtime  runtime.Runtime
	Plan     *topology.Plan
	Sweeper  Sweeper
	Registry *registry.Registry
	Events   chan<- Event

	// Probe gates consecutive full node launches; when DisableProbe is set
	// (or Probe is nil) the fixed NodeDelay pause is used instead.
	Probe        *config.ProbeSpec
	DisableProbe bool
	NodeDelay    time.Duration

	// StopTimeout bounds the graceful shutdown window before surviving
	// process groups are force-killed.
	StopTimeout time.Duration

	// Dir is the working directory handed to every child.
	Dir string
}

// Supervisor starts the planned processes in order, records each spawned
// identifier before the next spawn, and tears the whole set down when the run
// context is cancelled.
type Supervisor struct {
	runtime      runtime.Runtime
	plan         *topology.Plan
	sweeper      Sweeper
	registry     *registry.Registry
	events       chan<- Event
	probeSpec    *config.ProbeSpec
	disableProbe bool
	nodeDelay    time.Duration
	stopTimeout  time.Duration
	dir          string

	state atomic.Int32

	mu    sync.Mutex
	group []*managed
	pids  map[int]struct{}

	logWG sync.WaitGroup
}

type managed struct {
	name   string
	handle runtime.Handle
}

const defaultStopTimeout = 10 * time.Second

// New constructs a supervisor for the provided plan.
func New(opts Options) *Supervisor {
	stopTimeout := opts.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Supervisor{
		runtime:      opts.Runtime,
		plan:         opts.Plan,
		sweeper:      opts.Sweeper,
		registry:     opts.Registry,
		events:       opts.Events,
		probeSpec:    opts.Probe.Clone(),
		disableProbe: opts.DisableProbe,
		nodeDelay:    opts.NodeDelay,
		stopTimeout:  stopTimeout,
		dir:          opts.Dir,
		pids:         make(map[int]struct{}),
	}
}

// State reports the current signal disposition.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Run drives one full simulation: pre-flight sweep, ordered startup, then
// blocking until the context is cancelled or every child has exited on its
// own, followed by the shutdown path. The returned error is the first hard
// spawn failure, if any; a signal-triggered teardown is a clean exit.
func (s *Supervisor) Run(ctx context.Context) error {
	s.preflight()

	firstErr := s.startAll(ctx)

	allExited := make(chan struct{})
	go func() {
		s.waitAll()
		close(allExited)
	}()

	select {
	case <-ctx.Done():
	case <-allExited:
	}

	s.shutdown(allExited)
	s.logWG.Wait()
	return firstErr
}

// preflight eliminates leftovers from a previous, possibly-crashed run before
// anything new is started. Best effort: a failed sweep is reported but does
// not block the launch.
func (s *Supervisor) preflight() {
	if s.sweeper == nil {
		return
	}
	killed, err := s.sweeper.Run()
	if err != nil {
		s.sendEvent("", 0, EventTypeError, "pre-flight sweep failed", err)
		return
	}
	metrics.AddSweepKills(len(killed))
	for _, proc := range killed {
		s.sendEvent(proc.Comm, proc.PID, EventTypeSwept, "killed leftover process", nil)
	}
}

func (s *Supervisor) startAll(ctx context.Context) error {
	var firstErr error
	for _, entry := range s.plan.Processes {
		if ctx.Err() != nil {
			break
		}

		s.sendEvent(entry.Name, 0, EventTypeStarting, "starting "+entry.Binary, nil)
		handle, err := s.runtime.Start(ctx, runtime.StartSpec{
			Name:   entry.Name,
			Binary: entry.Binary,
			Args:   entry.Args,
			Dir:    s.dir,
		})
		if err != nil {
			// A failed spawn does not halt the launch sequence; the
			// run's exit reflects the first hard failure.
			metrics.IncSpawnFailures(entry.Name)
			s.sendEvent(entry.Name, 0, EventTypeCrashed, "spawn failed", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("start %s: %w", entry.Name, err)
			}
			continue
		}

		if !s.record(entry.Name, handle) {
			// Identifier already tracked; reap the extraneous handle so it
			// is not orphaned outside the group record.
			_ = handle.Kill()
			continue
		}
		if s.registry != nil {
			err := s.registry.Record(ctx, registry.Record{
				Name:   entry.Name,
				PID:    handle.PID(),
				Status: registry.StatusRunning,
			})
			if err != nil {
				s.sendEvent(entry.Name, handle.PID(), EventTypeError, "registry record failed", err)
			}
		}
		metrics.SetProcessesRunning(s.groupSize())
		s.sendEvent(entry.Name, handle.PID(), EventTypeStarted, "started", nil)
		s.forwardLogs(entry.Name, handle)

		if entry.ProbeAddr != "" {
			s.gate(ctx, entry)
		}
	}
	return firstErr
}

// gate holds the launch sequence until the just-started node accepts a TCP
// connection on its peer-to-peer port, falling back to the fixed pause when
// probing is disabled. A failed probe is reported and startup continues; the
// next node will surface the real problem when it cannot reach its peer.
func (s *Supervisor) gate(ctx context.Context, entry topology.Process) {
	if s.disableProbe || s.probeSpec == nil {
		s.pause(ctx)
		return
	}
	runner := probe.NewTCP(entry.ProbeAddr, s.probeSpec)
	if err := runner.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.sendEvent(entry.Name, 0, EventTypeError, "readiness probe failed; continuing startup", err)
		return
	}
	s.sendEvent(entry.Name, 0, EventTypeReady, "accepting connections on "+entry.ProbeAddr, nil)
}

func (s *Supervisor) pause(ctx context.Context) {
	if s.nodeDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.nodeDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// record appends the handle to the process group record. Recording is
// idempotent: a PID never appears twice.
func (s *Supervisor) record(name string, handle runtime.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := handle.PID()
	if pid != 0 {
		if _, dup := s.pids[pid]; dup {
			return false
		}
		s.pids[pid] = struct{}{}
	}
	s.group = append(s.group, &managed{name: name, handle: handle})
	return true
}

func (s *Supervisor) snapshot() []*managed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*managed(nil), s.group...)
}

func (s *Supervisor) groupSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.group)
}

// waitAll blocks until every recorded process has exited. Individual exit
// errors are not propagated; only the collective exit matters here.
func (s *Supervisor) waitAll() {
	var g errgroup.Group
	for _, m := range s.snapshot() {
		handle := m.handle
		g.Go(func() error {
			_ = handle.Wait(context.Background())
			return nil
		})
	}
	_ = g.Wait()
}

// shutdown signals every recorded identifier in recording order, repeats the
// name-based sweep for anything not cleanly tracked, then waits out the stop
// timeout before force-killing survivors. Exactly one caller wins the state
// transition; later calls are no-ops.
func (s *Supervisor) shutdown(allExited <-chan struct{}) {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateTerminating)) {
		return
	}
	s.sendEvent("", 0, EventTypeStopping, "terminating managed processes", nil)

	for _, m := range s.snapshot() {
		if err := m.handle.Terminate(); err != nil {
			s.sendEvent(m.name, m.handle.PID(), EventTypeError, "terminate failed", err)
		}
	}

	if s.sweeper != nil {
		// Tracked processes just got their graceful signal; the name sweep
		// only reaps what the group record never covered.
		var tracked []int
		for _, m := range s.snapshot() {
			if pid := m.handle.PID(); pid != 0 {
				tracked = append(tracked, pid)
			}
		}
		killed, err := s.sweeper.Run(tracked...)
		if err != nil {
			s.sendEvent("", 0, EventTypeError, "shutdown sweep failed", err)
		} else {
			metrics.AddSweepKills(len(killed))
			for _, proc := range killed {
				s.sendEvent(proc.Comm, proc.PID, EventTypeSwept, "killed untracked process", nil)
			}
		}
	}

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-allExited:
	case <-timer.C:
		for _, m := range s.snapshot() {
			if err := m.handle.Kill(); err != nil {
				s.sendEvent(m.name, m.handle.PID(), EventTypeError, "kill failed", err)
			}
		}
		<-allExited
	}

	if s.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, m := range s.snapshot() {
			_ = s.registry.Record(ctx, registry.Record{
				Name:   m.name,
				PID:    m.handle.PID(),
				Status: registry.StatusStopped,
			})
		}
		if err := s.registry.Clear(ctx); err != nil {
			s.sendEvent("", 0, EventTypeError, "registry clear failed", err)
		}
	}

	metrics.SetProcessesRunning(0)
	s.sendEvent("", 0, EventTypeStopped, "all managed processes exited", nil)
}

// forwardLogs streams a child's captured output into the event channel.
// Sends never block: when the consumer falls behind, lines are dropped and a
// synthesized warning surfaces the count once delivery resumes.
func (s *Supervisor) forwardLogs(name string, handle runtime.Handle) {
	logs := handle.Logs()
	if logs == nil {
		return
	}
	s.logWG.Add(1)
	go func() {
		defer s.logWG.Done()
		dropped := 0
		for entry := range logs {
			if entry.Message == "" {
				continue
			}
			if dropped > 0 {
				if !s.emitLog(s.droppedEvent(name, dropped)) {
					dropped++
					continue
				}
				dropped = 0
			}
			if !s.emitLog(s.logEvent(name, handle.PID(), entry)) {
				dropped++
			}
		}
		if dropped > 0 {
			s.emitLog(s.droppedEvent(name, dropped))
		}
	}()
}

func (s *Supervisor) logEvent(name string, pid int, entry runtime.LogEntry) Event {
	level := entry.Level
	if level == "" {
		level = "info"
	}
	source := entry.Source
	if source == "" {
		source = runtime.LogSourceStdout
	}
	return Event{
		Timestamp: time.Now(),
		Process:   name,
		PID:       pid,
		Type:      EventTypeLog,
		Message:   entry.Message,
		Level:     level,
		Source:    source,
	}
}

func (s *Supervisor) droppedEvent(name string, count int) Event {
	return Event{
		Timestamp: time.Now(),
		Process:   name,
		Type:      EventTypeLog,
		Message:   fmt.Sprintf("dropped=%d", count),
		Level:     "warn",
		Source:    runtime.LogSourceSystem,
	}
}

func (s *Supervisor) emitLog(evt Event) bool {
	if s.events == nil {
		return true
	}
	select {
	case s.events <- evt:
		return true
	default:
		return false
	}
}
