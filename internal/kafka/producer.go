package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

// Producer publishes fan-out jobs for the worker process.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	sc, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create sync producer: %w", err)
	}
	return newProducer(p, cfg.Topic), nil
}

func newProducer(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

func (p *Producer) Enqueue(ctx context.Context, job models.FanOutJob) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal fan-out job: %w", err)
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(job.ChannelID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish fan-out job: %w", err)
	}
	log.Debugw(ctx, "fan-out job published",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"message_id", job.MessageID,
	)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
