package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/kafka"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-notify/internal/server"
	"github.com/nguyentranbao-ct/chat-notify/internal/setup"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
	"github.com/nguyentranbao-ct/chat-notify/pkg/logger"
)

// Invoke builds the application graph and runs funcs against it. Providers
// are lazy, so a process only dials what the invoked funcs depend on.
func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", redacted(conf)))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,
			newDeduplicator,
			newFirebaseApp,
			newTokenVerifier,
			newNotificationSender,
			newFanOutQueue,
			newKafkaConsumer,

			mongodb.NewChannelRepository,
			mongodb.NewMemberRepository,
			mongodb.NewMessageRepository,
			mongodb.NewThreadRepository,
			mongodb.NewUserRepository,
			mongodb.NewMigrationRepository,

			usecase.NewClock,
			usecase.NewMembershipUsecase,
			usecase.NewReadStateUsecase,
			usecase.NewMessageUsecase,
			usecase.NewDeviceUsecase,
			usecase.NewFanOutUsecase,

			server.NewController,
			server.NewEcho,
		),
		fx.Supply(conf),
		fx.Invoke(EnsureIndexes),
		fx.Invoke(funcs...),
	)
}

// Serve runs the RPC server. Fan-out runs in-process unless Kafka is enabled.
func Serve() *fx.App {
	return Invoke(
		setup.SetupChannels,
		server.StartServer,
	)
}

// Worker consumes fan-out jobs published by Serve.
func Worker() *fx.App {
	return Invoke(
		kafka.StartConsumeFanOut,
	)
}

// EnsureIndexes creates the indexes the read paths rely on before any
// request is served.
func EnsureIndexes(lc fx.Lifecycle, migrations mongodb.MigrationRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return migrations.EnsureIndexes(ctx)
		},
	})
}

func redacted(conf *config.Config) config.Config {
	c := *conf
	if c.Database.Password != "" {
		c.Database.Password = "***"
	}
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = "***"
	}
	return c
}
