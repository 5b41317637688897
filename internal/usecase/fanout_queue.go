package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
)

var ErrQueueStopped = errors.New("fan-out queue is stopped")

// PoolQueue runs fan-out jobs in process on a bounded worker pool.
type PoolQueue struct {
	// mu orders Submit against StopWait, which closes the pool's task channel.
	mu      sync.RWMutex
	stopped bool
	pool    *workerpool.WorkerPool
	fanOut  FanOutUsecase
	timeout time.Duration
}

func NewPoolQueue(workers int, timeout time.Duration, fanOut FanOutUsecase) *PoolQueue {
	return &PoolQueue{
		pool:    workerpool.New(workers),
		fanOut:  fanOut,
		timeout: timeout,
	}
}

func (q *PoolQueue) Enqueue(ctx context.Context, job models.FanOutJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	q.pool.Submit(func() {
		ctx, cancel := util.NewTimeoutContext(ctx, q.timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Errorw(ctx, "fan-out panicked", "channel_id", job.ChannelID, "message_id", job.MessageID, "panic", r)
			}
		}()
		if _, err := q.fanOut.FanOut(ctx, job); err != nil {
			log.Errorw(ctx, "fan-out failed", "channel_id", job.ChannelID, "message_id", job.MessageID, "error", err)
		}
	})
	return nil
}

// WaitingQueueSize is the number of jobs not yet picked up by a worker.
func (q *PoolQueue) WaitingQueueSize() int {
	return q.pool.WaitingQueueSize()
}

// Stop finishes every queued job before returning.
func (q *PoolQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.pool.StopWait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
