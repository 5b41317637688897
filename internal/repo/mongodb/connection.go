package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

type Options struct {
	AppName  string
	Hosts    []string
	Direct   bool
	Username string
	Password string
	AuthDB   string
	Database string
}

func NewConnection(ctx context.Context, o Options) (*DB, error) {
	clientOptions := options.Client().
		SetAppName(o.AppName).
		SetHosts(o.Hosts).
		SetDirect(o.Direct)

	// only set auth if a user is configured
	if o.Username != "" {
		clientOptions.SetAuth(options.Credential{
			AuthSource: o.AuthDB,
			Username:   o.Username,
			Password:   o.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(o.Database),
	}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}
