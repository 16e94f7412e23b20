package ingest

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/example/roadside-dispatch/internal/models"
)

// PresencePublisher emits provider presence snapshots to Kafka. The
// presence consumer mirrors them into the Redis directory; losing an
// event only makes the mirror stale until the next report.
type PresencePublisher struct {
	writer *kafka.Writer
}

func NewPresencePublisher(brokers []string, topic string) *PresencePublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &PresencePublisher{writer: w}
}

func (p *PresencePublisher) PublishPresence(ctx context.Context, profile *models.ProviderProfile) error {
	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(profile.UserID), Value: b})
}

func (p *PresencePublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
