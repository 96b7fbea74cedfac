package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is the payload published for every address with at least one
// accepted sweep transfer. The chat front end consumes the topic and turns
// events into owner-facing messages.
type Event struct {
	OwnerRef int64     `json:"owner_ref"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Kafka publishes sweep events, keyed by owner so one owner's events stay
// ordered. Delivery failures are logged and dropped; the sweep outcome is
// already recorded by the time anything is published.
type Kafka struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewKafka(brokers []string, topic string, log *slog.Logger) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (k *Kafka) Notify(ctx context.Context, ownerRef int64, message string) {
	payload, err := json.Marshal(Event{OwnerRef: ownerRef, Message: message, At: time.Now()})
	if err != nil {
		k.log.Warn("notification payload marshal failed", "err", err)
		return
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ownerRef, 10)),
		Value: payload,
	})
	if err != nil {
		k.log.Warn("notification publish failed", "owner", ownerRef, "err", err)
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
