// Package auditlog implements a rotating-file events.Emitter, giving the
// teacher's otherwise-unwired natefinch/lumberjack dependency a home as the
// durable audit trail for the event log spec.md §6 requires ("append-only,
// ordered per transaction"). Each line is a JSON record carrying a
// google/uuid correlation ID, a timestamp, the event type, and its payload.
package auditlog

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/raunit-dev/morpho-on-solana/events"
)

// Sink writes every emitted event as one JSON line to a rotating log file.
type Sink struct {
	mu      sync.Mutex
	writer  *lumberjack.Logger
	encoder *json.Encoder
}

// Options configures the underlying lumberjack.Logger.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// record is the on-disk shape of one audit-log line.
type record struct {
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	Payload       any       `json:"payload"`
}

// New constructs a Sink backed by a lumberjack.Logger rotating at the given
// options.
func New(opts Options) *Sink {
	writer := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return &Sink{writer: writer, encoder: json.NewEncoder(writer)}
}

// Emit implements events.Emitter. Timestamps are supplied by the caller via
// EmitAt when determinism matters (tests); Emit itself stamps wall-clock
// time, matching how a production host would record audit entries.
func (s *Sink) Emit(ev events.Event) {
	s.EmitAt(ev, time.Now())
}

// EmitAt writes ev with an explicit timestamp, letting callers keep audit
// entries deterministic in tests without faking wall-clock time globally.
func (s *Sink) EmitAt(ev events.Event, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{
		CorrelationID: uuid.NewString(),
		Timestamp:     at,
		EventType:     ev.EventType(),
		Payload:       ev,
	}
	if err := s.encoder.Encode(rec); err != nil {
		slog.Error("auditlog: failed to write event", "event_type", ev.EventType(), "error", err)
	}
}

// Close flushes and closes the underlying rotating file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Close()
}
