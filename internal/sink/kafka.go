package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"tick-feature-lab/internal/observability"
)

// KafkaSink publishes JSON envelopes through a sarama SyncProducer.
type KafkaSink struct {
	topic string
	p     sarama.SyncProducer
	now   func() time.Time
}

// NewProducerConfig returns the producer settings used by NewKafkaSink.
func NewProducerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 10
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	// SyncProducer must have Return.Successes=true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	return cfg
}

// NewKafkaSink connects a producer to brokers.
func NewKafkaSink(brokers []string, topic, clientID string) (*KafkaSink, error) {
	if topic == "" {
		return nil, errors.New("kafka topic is empty")
	}
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers")
	}

	p, err := sarama.NewSyncProducer(brokers, NewProducerConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(p, topic), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(p sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{topic: topic, p: p, now: time.Now}
}

// Close closes the producer.
func (s *KafkaSink) Close() error {
	if s.p != nil {
		return s.p.Close()
	}
	return nil
}

// Emit sends msgs as one batch and waits for every ack.
// SyncProducer does not take a context; ctx is only checked before sending.
func (s *KafkaSink) Emit(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ts := s.now().UnixMilli()
	batch := make([]*sarama.ProducerMessage, 0, len(msgs))
	for _, m := range msgs {
		value, err := encode(m, ts)
		if err != nil {
			return err
		}
		pm := &sarama.ProducerMessage{
			Topic: s.topic,
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{Key: []byte("type"), Value: []byte(m.Type)},
			},
		}
		if m.Key != "" {
			pm.Key = sarama.StringEncoder(m.Key)
		}
		batch = append(batch, pm)
	}

	err := s.p.SendMessages(batch)
	for _, m := range msgs {
		observability.RecordPublish(m.Type, err)
	}
	if err != nil {
		return fmt.Errorf("kafka emit failed: %w", err)
	}
	return nil
}

func encode(m Message, ts int64) ([]byte, error) {
	data, err := json.Marshal(m.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Type, err)
	}
	b, err := json.Marshal(Envelope{Type: m.Type, TS: ts, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return b, nil
}

var _ Sink = (*KafkaSink)(nil)
