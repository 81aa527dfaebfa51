package showgate

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// AuditEvent records one noteworthy decision: a deny, an admin or service
// override allow, an explicit Override bypass, or an evaluation fault.
// Routine allows are not audited.
type AuditEvent struct {
	Time        time.Time
	PrincipalID string
	EntityType  EntityType
	EntityID    string
	Operation   Operation
	Effect      Effect
	Reason      string
}

// AuditSink receives audit events. Implementations must be safe for use from
// a single emitter goroutine and should be fast; a slow sink causes event
// drops, never caller latency.
type AuditSink interface {
	Emit(AuditEvent)
}

// Emitter forwards audit events to a sink without ever blocking the decision
// path. Events are queued on a bounded channel and delivered by a background
// goroutine; when the queue is full the event is dropped and counted.
// Dropping is acceptable here: audit is best-effort and has no bearing on
// the allow/deny outcome.
type Emitter struct {
	ch      chan AuditEvent
	sink    AuditSink
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// EmitterOption configures an Emitter.
type EmitterOption func(*emitterConfig)

type emitterConfig struct {
	buffer int
}

// WithBuffer sets the event queue depth. Default 256.
func WithBuffer(n int) EmitterOption {
	return func(c *emitterConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// NewEmitter starts an emitter delivering to sink. Call Close to flush and
// stop the delivery goroutine.
func NewEmitter(sink AuditSink, opts ...EmitterOption) *Emitter {
	cfg := emitterConfig{buffer: 256}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Emitter{
		ch:   make(chan AuditEvent, cfg.buffer),
		sink: sink,
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Emitter) run() {
	defer close(e.done)
	for ev := range e.ch {
		e.sink.Emit(ev)
	}
}

// Emit queues an event. It never blocks; under back-pressure the event is
// dropped and the drop counter incremented. Emit after Close also counts as
// a drop.
func (e *Emitter) Emit(ev AuditEvent) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	defer func() {
		// Sending on the closed queue counts as a drop instead of a panic;
		// the decision path must survive a racing Close.
		if recover() != nil {
			e.dropped.Add(1)
		}
	}()
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded under back-pressure.
func (e *Emitter) Dropped() uint64 {
	return e.dropped.Load()
}

// Close stops the emitter after draining queued events.
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		close(e.ch)
	})
	<-e.done
	return nil
}

// SlogSink writes audit events as structured log records. Denies and faults
// log at WARN, override allows at INFO.
type SlogSink struct {
	Logger *slog.Logger
}

// Emit implements AuditSink.
func (s SlogSink) Emit(ev AuditEvent) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if ev.Effect != EffectAllow {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "authorization decision",
		slog.Time("time", ev.Time),
		slog.String("principal", ev.PrincipalID),
		slog.String("entity", string(ev.EntityType)),
		slog.String("entity_id", ev.EntityID),
		slog.String("operation", string(ev.Operation)),
		slog.String("effect", ev.Effect.String()),
		slog.String("reason", ev.Reason),
	)
}

// MemorySink collects events in memory for tests and the conformance harness.
type MemorySink struct {
	mu     sync.Mutex
	events []AuditEvent
}

// Emit implements AuditSink.
func (s *MemorySink) Emit(ev AuditEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// Events returns a copy of the collected events.
func (s *MemorySink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}
