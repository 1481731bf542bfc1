// Package events publishes optimisation audit records to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"eco-route-planner/internal/models"
)

// Publisher emits one event per computed optimisation.
type Publisher interface {
	PublishRun(ctx context.Context, run *models.OptimizationRun) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w       messageWriter
	topic   string
	timeout time.Duration
	log     *zap.Logger
}

// NewKafkaPublisher writes to topic on brokers. With no brokers it returns a
// publisher that drops everything.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaPublisher(w, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w:       w,
		topic:   topic,
		timeout: 2 * time.Second,
		log:     log.With(zap.String("component", "kafka-publisher"), zap.String("topic", topic)),
	}
}

// PublishRun keys the message by origin and destination so runs for one pair
// stay ordered within a partition.
func (p *KafkaPublisher) PublishRun(ctx context.Context, run *models.OptimizationRun) error {
	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("PublishRun: encode: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(run.StartNode + ":" + run.EndNode),
		Value: body,
		Time:  run.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("route.optimized")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("PublishRun: write %s: %w", p.topic, err)
	}
	p.log.Debug("published optimisation run", zap.String("run_id", run.ID))
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Nop discards events.
type Nop struct{}

func (Nop) PublishRun(context.Context, *models.OptimizationRun) error { return nil }
func (Nop) Close() error                                              { return nil }
