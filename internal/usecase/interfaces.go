package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
)

// NotificationSender delivers one payload to a set of device tokens and
// reports the outcome per token.
type NotificationSender interface {
	Send(ctx context.Context, tokens []string, n models.Notification) []models.TokenResult
}

// FanOutQueue hands a fan-out job over to background processing.
type FanOutQueue interface {
	Enqueue(ctx context.Context, job models.FanOutJob) error
}

// Clock returns server time used to stamp messages.
type Clock interface {
	Now() time.Time
}

// monotonicClock never returns the same instant twice, so consecutive
// messages from this process always get distinct timestamps.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

func NewClock() Clock {
	return &monotonicClock{}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := util.Now()
	if !now.After(c.last) {
		now = c.last.Add(time.Millisecond)
	}
	c.last = now
	return now
}
