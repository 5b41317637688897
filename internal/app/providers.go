package app

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/fx"
	"google.golang.org/api/option"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/kafka"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/push"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/redis"
	pkgmdw "github.com/nguyentranbao-ct/chat-notify/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, mongodb.Options{
		AppName:  "chat-notify",
		Hosts:    cfg.Database.Hosts,
		Direct:   cfg.Database.Direct,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		AuthDB:   cfg.Database.AuthDB,
		Database: cfg.Database.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("init mongo client: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: db.Ping,
		OnStop:  db.Close,
	})
	return db, nil
}

func newDeduplicator(lc fx.Lifecycle, cfg *config.Config) (redis.Deduplicator, error) {
	if cfg.Redis.URL == "" {
		log.Warnf(context.Background(), "REDIS_URL is empty, fan-out runs without dedup")
		return redis.NewNoopDeduplicator(), nil
	}
	client, err := redis.NewClient(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return redis.NewDeduplicator(client, cfg.FanOut.DedupTTL), nil
}

// newFirebaseApp returns nil when neither identity nor push goes through Firebase.
func newFirebaseApp(cfg *config.Config) (*firebase.App, error) {
	if cfg.Auth.Provider != "firebase" && cfg.Notification.Provider != "fcm" {
		return nil, nil
	}
	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	var fc *firebase.Config
	if cfg.Firebase.ProjectID != "" {
		fc = &firebase.Config{ProjectID: cfg.Firebase.ProjectID}
	}
	app, err := firebase.NewApp(context.Background(), fc, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

func newTokenVerifier(cfg *config.Config, app *firebase.App) (pkgmdw.TokenVerifier, error) {
	if cfg.Auth.Provider == "jwt" {
		return identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
	}
	client, err := app.Auth(context.Background())
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return identity.NewFirebaseVerifier(client), nil
}

func newNotificationSender(cfg *config.Config, app *firebase.App) (usecase.NotificationSender, error) {
	if cfg.Notification.Provider == "log" {
		return push.NewLogSender(), nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return push.NewFCMSender(client, cfg.Notification.AndroidChannelID), nil
}

// newFanOutQueue publishes jobs to Kafka when it is enabled and runs them on
// an in-process pool otherwise.
func newFanOutQueue(lc fx.Lifecycle, cfg *config.Config, fanOut usecase.FanOutUsecase) (usecase.FanOutQueue, error) {
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(&cfg.Kafka)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return producer.Close()
			},
		})
		return producer, nil
	}

	queue := usecase.NewPoolQueue(cfg.FanOut.Workers, cfg.FanOut.Timeout, fanOut)
	lc.Append(fx.Hook{
		OnStop: queue.Stop,
	})
	return queue, nil
}

func newKafkaConsumer(cfg *config.Config, fanOut usecase.FanOutUsecase) (kafka.Consumer, error) {
	return kafka.NewConsumer(&cfg.Kafka, &cfg.FanOut, fanOut)
}
