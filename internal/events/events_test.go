package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishOrderPlaced(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.PublishOrderPlaced(context.Background(), OrderPlaced{
		OrderID:     "o1",
		UserID:      "u1",
		TotalAmount: 25,
		ItemCount:   2,
		CreatedAt:   created,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("u1"), msg.Key)
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte(TypeOrderPlaced)}}, msg.Headers)

	var got OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, OrderPlaced{
		Type:        TypeOrderPlaced,
		OrderID:     "o1",
		UserID:      "u1",
		TotalAmount: 25,
		ItemCount:   2,
		CreatedAt:   created,
	}, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
