// Package logmux fans in supervisor event streams and delivers them to the
// terminal renderer through a bounded channel.
package logmux

import (
	"fmt"
	"sync"
	"time"

	"github.com/tad-network/tadsim/internal/launcher"
	"github.com/tad-network/tadsim/internal/runtime"
)

// Mux buffers supervisor events for a possibly slow consumer. Lifecycle
// events are always delivered. When the consumer cannot keep up with log
// traffic, log events are dropped and a synthesized warning surfaces the
// number of discarded lines once delivery resumes.
type Mux struct {
	out chan launcher.Event

	mu     sync.Mutex
	drops  map[string]int
	inputs sync.WaitGroup
}

// New constructs a mux backed by a channel of the provided size. A size of
// zero results in a minimally buffered channel.
func New(size int) *Mux {
	if size <= 0 {
		size = 1
	}
	return &Mux{
		out:   make(chan launcher.Event, size),
		drops: make(map[string]int),
	}
}

// Output exposes the muxed event channel.
func (m *Mux) Output() <-chan launcher.Event {
	return m.out
}

// Add registers a new source channel. The mux consumes events until the
// source channel is closed.
func (m *Mux) Add(source <-chan launcher.Event) {
	if source == nil {
		return
	}
	m.inputs.Add(1)
	go func() {
		defer m.inputs.Done()
		for evt := range source {
			evt = normalize(evt)
			if evt.Type == launcher.EventTypeLog {
				m.deliver(evt)
				continue
			}
			m.blockingSend(evt)
		}
	}()
}

// Close waits for all sources to be drained, emits any pending drop metadata,
// and closes the output channel.
func (m *Mux) Close() {
	m.inputs.Wait()
	m.flushDrops()
	close(m.out)
}

func (m *Mux) deliver(evt launcher.Event) {
	if !m.flushPending(evt.Process) {
		m.recordDrop(evt.Process, 1)
		return
	}
	if m.trySend(evt) {
		return
	}
	m.recordDrop(evt.Process, 1)
}

func (m *Mux) flushPending(process string) bool {
	for {
		count := m.takeDrops(process)
		if count == 0 {
			return true
		}
		if m.trySend(synthesizeDropEvent(process, count)) {
			continue
		}
		m.recordDrop(process, count)
		return false
	}
}

func (m *Mux) takeDrops(process string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := m.drops[process]
	if count != 0 {
		delete(m.drops, process)
	}
	return count
}

func (m *Mux) recordDrop(process string, count int) {
	if count <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops[process] += count
}

func (m *Mux) flushDrops() {
	pending := m.collectDrops()
	for process, count := range pending {
		m.blockingSend(synthesizeDropEvent(process, count))
	}
}

func (m *Mux) collectDrops() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.drops) == 0 {
		return nil
	}
	dup := make(map[string]int, len(m.drops))
	for process, count := range m.drops {
		if count == 0 {
			continue
		}
		dup[process] = count
	}
	m.drops = make(map[string]int)
	return dup
}

func (m *Mux) trySend(evt launcher.Event) bool {
	select {
	case m.out <- evt:
		return true
	default:
		return false
	}
}

func (m *Mux) blockingSend(evt launcher.Event) {
	m.out <- evt
}

func normalize(evt launcher.Event) launcher.Event {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.Source == "" {
		evt.Source = runtime.LogSourceStdout
	}
	if evt.Level == "" {
		if evt.Source == runtime.LogSourceStderr {
			evt.Level = "warn"
		} else {
			evt.Level = "info"
		}
	}
	return evt
}

func synthesizeDropEvent(process string, count int) launcher.Event {
	return launcher.Event{
		Timestamp: time.Now(),
		Process:   process,
		Type:      launcher.EventTypeLog,
		Message:   fmt.Sprintf("dropped=%d", count),
		Level:     "warn",
		Source:    runtime.LogSourceSystem,
	}
}
