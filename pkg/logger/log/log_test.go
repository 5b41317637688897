package log

import (
	"context"
	"testing"

	"github.com/nguyentranbao-ct/chat-notify/pkg/ctxval"
	"github.com/stretchr/testify/assert"
)

func TestAddFields(t *testing.T) {
	t.Parallel()

	t.Run("wrapped context accumulates fields", func(t *testing.T) {
		ctx := ctxval.Wrap(context.Background())
		AddFields(ctx, "request_id", "r1")
		AddFields(ctx, "uid", "u1")

		assert.Equal(t, []any{"request_id", "r1", "uid", "u1"}, Fields(ctx))
	})

	t.Run("plain context is ignored", func(t *testing.T) {
		ctx := context.Background()
		AddFields(ctx, "request_id", "r1")

		assert.Empty(t, Fields(ctx))
	})

	t.Run("logging never panics", func(t *testing.T) {
		ctx := ctxval.Wrap(context.Background())
		AddFields(ctx, "uid", "u1")
		assert.NotPanics(t, func() {
			Infow(ctx, "hello", "k", "v")
			Debugf(context.Background(), "no fields %d", 1)
		})
	})
}
