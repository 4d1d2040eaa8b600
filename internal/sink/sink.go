// Package sink publishes bars, labels and summaries to downstream consumers.
package sink

import (
	"context"
	"encoding/json"
	"sync"

	"tick-feature-lab/internal/config"
)

// Message types
const (
	TypeBar     = "bar"
	TypeLabel   = "label"
	TypeSummary = "summary"
)

// Message is one record to publish. Key selects the partition.
type Message struct {
	Type string
	Key  string
	Data any
}

// Envelope is the wire format of a published message.
type Envelope struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"` // publish time, Unix milliseconds
	Data json.RawMessage `json:"data"`
}

// Sink publishes messages.
type Sink interface {
	Emit(ctx context.Context, msgs ...Message) error
	Close() error
}

// NopSink discards everything.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(context.Context, ...Message) error { return nil }

// Close does nothing.
func (NopSink) Close() error { return nil }

// MemorySink keeps emitted messages in memory.
type MemorySink struct {
	mu   sync.Mutex
	msgs []Message
}

// Emit appends msgs.
func (s *MemorySink) Emit(_ context.Context, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msgs...)
	return nil
}

// Close does nothing.
func (s *MemorySink) Close() error { return nil }

// Messages returns a copy of everything emitted so far.
func (s *MemorySink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Count returns how many messages of typ were emitted.
func (s *MemorySink) Count(typ string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

var (
	_ Sink = NopSink{}
	_ Sink = (*MemorySink)(nil)
)

// FromConfig returns a Kafka sink when publishing is enabled, otherwise a NopSink.
func FromConfig(cfg config.KafkaConfig) (Sink, error) {
	if !cfg.Enabled {
		return NopSink{}, nil
	}
	return NewKafkaSink(cfg.Brokers, cfg.Topic, cfg.ClientID)
}
