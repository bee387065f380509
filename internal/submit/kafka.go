package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	"punchgate/internal/clock"
)

// Kafka produces each committed event to a topic, keyed by event ID so
// replays of the same event land in the same partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

func NewKafka(brokers, topic string) (*Kafka, error) {
	if brokers == "" {
		return nil, fmt.Errorf("submit: brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("submit: topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("submit: kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

func (k *Kafka) Submit(ctx context.Context, event clock.Event) error {
	value, err := json.Marshal(toPayload(event))
	if err != nil {
		return fmt.Errorf("submit: encode event %s: %w", event.ID, err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.ID.String()),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("submit: produce event %s: %w", event.ID, err)
	}
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
