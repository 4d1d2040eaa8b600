package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
}

func TestKafkaSink_EmitBatch(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	var got []Envelope
	check := func(value []byte) error {
		var env Envelope
		if err := json.Unmarshal(value, &env); err != nil {
			return err
		}
		got = append(got, env)
		return nil
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(check)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(check)

	s := NewKafkaSinkWithProducer(producer, "tick-features")
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	err := s.Emit(context.Background(),
		Message{Type: TypeBar, Key: "ES|dollar|0", Data: payload{"ES", 101.5}},
		Message{Type: TypeLabel, Key: "ES|dollar|0", Data: map[string]int{"event": 1}},
	)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, TypeBar, got[0].Type)
	assert.Equal(t, int64(1700000000000), got[0].TS)

	var bar payload
	require.NoError(t, json.Unmarshal(got[0].Data, &bar))
	assert.Equal(t, payload{"ES", 101.5}, bar)
	assert.Equal(t, TypeLabel, got[1].Type)
}

func TestKafkaSink_EmitFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	s := NewKafkaSinkWithProducer(producer, "tick-features")
	err := s.Emit(context.Background(), Message{Type: TypeSummary, Data: payload{}})
	require.Error(t, err)

	var perrs sarama.ProducerErrors
	require.ErrorAs(t, err, &perrs)
	require.Len(t, perrs, 1)
	assert.Equal(t, sarama.ErrNotLeaderForPartition, perrs[0].Err)
}

func TestKafkaSink_EmptyAndCancelled(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	s := NewKafkaSinkWithProducer(producer, "tick-features")
	assert.NoError(t, s.Emit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Emit(ctx, Message{Type: TypeBar, Data: payload{}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewKafkaSink_Validation(t *testing.T) {
	_, err := NewKafkaSink([]string{"localhost:9092"}, "", "")
	assert.Error(t, err)

	_, err = NewKafkaSink(nil, "tick-features", "")
	assert.Error(t, err)
}

