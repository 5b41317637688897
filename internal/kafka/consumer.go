package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/gammazero/workerpool"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/pkg/logger"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type kafkaConsumer struct {
	group          sarama.ConsumerGroup
	topic          string
	groupID        string
	metrics        *prometheus.HistogramVec
	consumeTimeout time.Duration
	maxAttempts    int
	retryBackoff   time.Duration
	handler        JobHandler
	validate       *validator.Validate
	workerPool     *workerpool.WorkerPool
}

// NewConsumer creates a consumer group reading fan-out jobs
func NewConsumer(
	cfg *config.KafkaConfig,
	fanOut *config.FanOutConfig,
	handler JobHandler,
) (Consumer, error) {
	if !cfg.Enabled {
		return &noopConsumer{}, nil
	}

	sc, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return newKafkaConsumer(group, cfg.Topic, cfg.GroupID, fanOut, handler)
}

func newKafkaConsumer(
	group sarama.ConsumerGroup,
	topic, groupID string,
	fanOut *config.FanOutConfig,
	handler JobHandler,
) (*kafkaConsumer, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &kafkaConsumer{
		group:          group,
		topic:          topic,
		groupID:        groupID,
		metrics:        metrics,
		consumeTimeout: fanOut.Timeout,
		maxAttempts:    max(fanOut.MaxAttempts, 1),
		retryBackoff:   fanOut.RetryBackoff,
		handler:        handler,
		validate:       validator.New(),
		workerPool:     workerpool.New(fanOut.Workers),
	}, nil
}

func (c *kafkaConsumer) Start(ctx context.Context) error {
	log.Infof(ctx, "Starting Kafka consumer for topic: %s", c.topic)

	go func() {
		for err := range c.group.Errors() {
			log.Errorw(ctx, "Consumer group error", "error", err)
		}
	}()

	for ctx.Err() == nil {
		err := c.group.Consume(ctx, []string{c.topic}, c)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			log.Errorw(ctx, "Error consuming", "error", err)
			time.Sleep(time.Second)
		}
	}
	return nil
}

func (c *kafkaConsumer) Stop(ctx context.Context) error {
	log.Infof(ctx, "Stopping Kafka consumer")
	err := c.group.Close()
	c.workerPool.StopWait()
	return err
}

func (c *kafkaConsumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *kafkaConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim handles one partition in order. The worker pool bounds the
// number of jobs running across all partitions.
func (c *kafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.workerPool.SubmitWait(func() {
				c.processWithRetry(session.Context(), msg)
			})
			// leave the offset for the next owner of the partition
			if session.Context().Err() != nil {
				return nil
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// processWithRetry runs the job again while it fails with a retryable code.
// A failed fan-out releases its dedup claim, so the next attempt delivers.
func (c *kafkaConsumer) processWithRetry(ctx context.Context, msg *sarama.ConsumerMessage) codes.Code {
	for attempt := 1; ; attempt++ {
		code := c.processMessage(ctx, msg, attempt)
		if !isRetryable(code) || attempt >= c.maxAttempts {
			return code
		}
		select {
		case <-ctx.Done():
			return code
		case <-time.After(c.retryBackoff * time.Duration(attempt)):
		}
	}
}

func isRetryable(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Unknown:
		return true
	default:
		return false
	}
}

func (c *kafkaConsumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage, attempt int) codes.Code {
	start := time.Now()
	lagMs := start.Sub(msg.Timestamp).Milliseconds()

	duration, err := c.handle(ctx, msg)

	code := getCode(err)
	content := "success"
	if err != nil {
		content = err.Error()
	}

	level := getLogLevel(code)
	log.Logw(ctx, level, content,
		"code", code,
		"duration_ms", duration.Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"attempt", attempt,
		"lag_ms", lagMs,
		"key", string(msg.Key),
		"value", json.RawMessage(msg.Value),
	)

	c.metrics.
		WithLabelValues(code.String(), msg.Topic, c.groupID).
		Observe(duration.Seconds())
	return code
}

func (c *kafkaConsumer) handle(msgCtx context.Context, msg *sarama.ConsumerMessage) (duration time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PANIC RECOVER: %+v", r)
		}
	}()

	start := time.Now()
	defer func() {
		duration = time.Since(start)
	}()

	job, err := c.decode(msg.Value)
	if err != nil {
		return 0, err
	}

	ctx, cancel := util.NewTimeoutContext(msgCtx, c.consumeTimeout)
	defer cancel()

	_, err = c.handler.FanOut(ctx, job)
	return 0, err
}

func (c *kafkaConsumer) decode(value []byte) (models.FanOutJob, error) {
	var job models.FanOutJob
	if err := json.Unmarshal(value, &job); err != nil {
		return job, models.InvalidArgument("failed to unmarshal fan-out job: %v", err)
	}
	if err := c.validate.Struct(job); err != nil {
		return job, models.InvalidArgument("invalid fan-out job: %v", err)
	}
	return job, nil
}

func getCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	if e := models.AsError(err); e.Code != codes.Unknown {
		return e.Code
	}
	st, ok := status.FromError(err)
	if !ok {
		return status.Code(errors.Unwrap(err))
	}
	return st.Code()
}

// noopConsumer is used when Kafka is disabled
type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	log.Infof(ctx, "Kafka consumer is disabled")
	return nil
}

func (n *noopConsumer) Stop(ctx context.Context) error {
	return nil
}

func getLogLevel(code codes.Code) logger.Level {
	switch code {
	case codes.OK:
		return logger.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return logger.WarnLevel
	default:
		return logger.ErrorLevel
	}
}
