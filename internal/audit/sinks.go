package audit

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// MemorySink keeps events in process. Used by tests and local runs.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Actions lists the recorded actions in emission order.
func (s *MemorySink) Actions() []Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Action, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

// LogSink writes events to the structured log stream.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, string(e.Action),
		"log_type", "audit",
		"actor_id", e.ActorID,
		"subject", e.Subject,
		"location_id", e.LocationID,
		"detail", e.Detail,
		"request_id", e.RequestID,
		"client_ip", e.ClientIP,
		"device", e.Device,
		"at", e.Timestamp,
	)
	return nil
}
