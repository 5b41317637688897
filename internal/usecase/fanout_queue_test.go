package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
)

type countingFanOut struct {
	calls atomic.Int32
	panic bool
}

func (f *countingFanOut) FanOut(ctx context.Context, job models.FanOutJob) (*models.FanOutReport, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errBoom
	}
	return &models.FanOutReport{ChannelID: job.ChannelID, MessageID: job.MessageID}, nil
}

func TestPoolQueue(t *testing.T) {
	t.Run("stop drains queued jobs", func(t *testing.T) {
		fanOut := &countingFanOut{}
		q := NewPoolQueue(2, time.Second, fanOut)

		for range 10 {
			require.NoError(t, q.Enqueue(context.Background(), models.FanOutJob{ChannelID: "c", MessageID: "m"}))
		}
		require.NoError(t, q.Stop(context.Background()))
		assert.EqualValues(t, 10, fanOut.calls.Load())

		err := q.Enqueue(context.Background(), models.FanOutJob{})
		assert.ErrorIs(t, err, ErrQueueStopped)
	})

	t.Run("enqueue racing stop is rejected, not lost", func(t *testing.T) {
		fanOut := &countingFanOut{}
		q := NewPoolQueue(4, time.Second, fanOut)

		var accepted atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 50 {
					err := q.Enqueue(context.Background(), models.FanOutJob{ChannelID: "c", MessageID: "m"})
					if err == nil {
						accepted.Add(1)
						continue
					}
					assert.ErrorIs(t, err, ErrQueueStopped)
				}
			}()
		}
		require.NoError(t, q.Stop(context.Background()))
		wg.Wait()
		assert.Equal(t, accepted.Load(), fanOut.calls.Load())
	})

	t.Run("job outlives the request context", func(t *testing.T) {
		fanOut := &countingFanOut{}
		q := NewPoolQueue(1, time.Second, fanOut)

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, q.Enqueue(ctx, models.FanOutJob{ChannelID: "c", MessageID: "m"}))
		cancel()
		require.NoError(t, q.Stop(context.Background()))
		assert.EqualValues(t, 1, fanOut.calls.Load())
	})

	t.Run("panicking job does not kill the pool", func(t *testing.T) {
		fanOut := &countingFanOut{panic: true}
		q := NewPoolQueue(1, time.Second, fanOut)

		require.NoError(t, q.Enqueue(context.Background(), models.FanOutJob{}))
		require.NoError(t, q.Enqueue(context.Background(), models.FanOutJob{}))
		require.NoError(t, q.Stop(context.Background()))
		assert.EqualValues(t, 2, fanOut.calls.Load())
	})
}
