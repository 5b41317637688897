package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
)

// Consumer defines the interface for Kafka message consumption
type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// JobHandler runs one decoded fan-out job.
type JobHandler interface {
	FanOut(ctx context.Context, job models.FanOutJob) (*models.FanOutReport, error)
}
