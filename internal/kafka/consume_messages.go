package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
	"go.uber.org/fx"
)

// StartConsumeFanOut runs the consumer for the lifetime of the fx app and
// shuts the app down when consumption stops with an error.
func StartConsumeFanOut(
	sd fx.Shutdowner,
	lc fx.Lifecycle,
	conf *config.Config,
	consumer Consumer,
) {
	if !conf.Kafka.Enabled {
		log.Warnf(context.Background(), "Kafka consumer is disabled in configuration")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := consumer.Start(ctx); err != nil {
					log.Errorw(ctx, "Kafka consumer stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return consumer.Stop(stopCtx)
		},
	})
}
