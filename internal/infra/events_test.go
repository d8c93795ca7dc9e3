package infra

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_BuffersAndDropsWhenFull(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "pos.test", 1)

	e := Event{
		Type:       EventTransactionCommitted,
		OccurredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Payload:    map[string]string{"transaction_id": "t-1"},
	}
	p.Publish("t-1", e)
	p.Publish("t-2", e) // buffer full, dropped without blocking

	require.Len(t, p.inbox, 1)
	msg := <-p.inbox
	assert.Equal(t, "t-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventTransactionCommitted, string(msg.Headers[0].Value))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, EventTransactionCommitted, decoded["type"])
}

func TestNoopPublisher(t *testing.T) {
	var p EventPublisher = NoopPublisher{}
	assert.NotPanics(t, func() { p.Publish("k", Event{Type: "x"}) })
}
