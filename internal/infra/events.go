package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Event types published on the transactions topic.
const (
	EventTransactionCommitted     = "transaction.committed"
	EventTransactionStatusChanged = "transaction.status_changed"
)

// Event is the envelope written to Kafka. Key is the transaction id so all
// events of one transaction land on the same partition, in order.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// EventPublisher is fire-and-forget: publishing never fails the operation
// that produced the event.
type EventPublisher interface {
	Publish(key string, e Event)
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, Event) {}

// KafkaPublisher buffers events in a channel and writes them from a single
// goroutine, so request handlers never wait on the broker.
type KafkaPublisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the writer loop until ctx is cancelled, then flushes what is
// left in the buffer and closes the writer.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						_ = p.w.Close()
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		log.Error().Err(err).Str("key", string(m.Key)).Msg("events: kafka write failed")
	}
}

// Publish enqueues e. When the buffer is full the event is dropped and logged
// rather than blocking the caller.
func (p *KafkaPublisher) Publish(key string, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("events: marshal failed")
		return
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	}
	select {
	case p.inbox <- msg:
	default:
		log.Warn().Str("type", e.Type).Str("key", key).Msg("events: buffer full, dropping event")
	}
}

// WaitClosed blocks until the writer loop has flushed and exited.
func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }
