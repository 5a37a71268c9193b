// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decisionlog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/metrics"
)

// DefaultBufferSize is used when Config.BufferSize is not positive.
const DefaultBufferSize = 1024

// Event is a single authorization decision.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
	Mode      string        `json:"mode"`
	Route     string        `json:"route,omitempty"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Subject   string        `json:"subject,omitempty"`
	Outcome   string        `json:"outcome"`
	Status    int           `json:"status"`
	Allowed   bool          `json:"allowed"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Sink receives events from the logger's writer goroutine.
type Sink interface {
	Name() string
	Write(event *Event) error
}

// Config holds decision logger settings.
type Config struct {
	BufferSize int
}

// Stats is a point-in-time snapshot of logger counters.
type Stats struct {
	Logged  int64
	Dropped int64
	Pending int
}

// Logger buffers decision events and fans them out to sinks.
type Logger struct {
	sinks  []Sink
	events chan *Event

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	logged  int64
	dropped int64
}

// New starts a logger writing to sinks. Nil sinks are ignored.
func New(cfg Config, sinks ...Sink) *Logger {
	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	active := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}

	l := &Logger{
		sinks:    active,
		events:   make(chan *Event, size),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.processEvents()

	return l
}

// Log queues an event without blocking. A nil Logger is a no-op.
func (l *Logger) Log(event *Event) {
	if l == nil || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case <-l.stopChan:
		l.drop(event)
		return
	default:
	}

	select {
	case l.events <- event:
	default:
		l.drop(event)
	}
}

func (l *Logger) drop(event *Event) {
	l.mu.Lock()
	l.dropped++
	l.mu.Unlock()
	metrics.DecisionLogDropped.Inc()

	logging.Warn().
		Str("event_id", event.ID).
		Str("path", event.Path).
		Msg("Decision log buffer full, dropping event")
}

func (l *Logger) processEvents() {
	defer l.wg.Done()

	for {
		select {
		case event := <-l.events:
			l.writeEvent(event)
		case <-l.stopChan:
			l.drainEvents()
			return
		}
	}
}

func (l *Logger) drainEvents() {
	for {
		select {
		case event := <-l.events:
			l.writeEvent(event)
		default:
			return
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	for _, s := range l.sinks {
		err := s.Write(event)
		metrics.RecordDecisionLogWrite(s.Name(), err)
		if err != nil {
			logging.Warn().Err(err).
				Str("sink", s.Name()).
				Str("event_id", event.ID).
				Msg("Decision log sink write failed")
		}
	}

	l.mu.Lock()
	l.logged++
	l.mu.Unlock()
}

// Close stops the writer after draining queued events and closes sinks
// that implement io.Closer-like Close() error.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()

	var firstErr error
	for _, s := range l.sinks {
		c, ok := s.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats returns current counters.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Logged:  l.logged,
		Dropped: l.dropped,
		Pending: len(l.events),
	}
}
