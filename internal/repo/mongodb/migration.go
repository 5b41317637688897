package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

// MigrationRepository prepares the collections this service reads from.
type MigrationRepository interface {
	EnsureIndexes(ctx context.Context) error
}

type migrationRepo struct {
	db *DB
}

func NewMigrationRepository(db *DB) MigrationRepository {
	return &migrationRepo{
		db: db,
	}
}

type collectionIndexes struct {
	collection string
	indexes    []mongo.IndexModel
}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: models.User{}.CollectionName(),
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "tokens", Value: 1}}, Options: options.Index().SetName("tokens")},
			},
		},
		{
			collection: models.Channel{}.CollectionName(),
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name")},
			},
		},
		{
			collection: models.Member{}.CollectionName(),
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "channel_id", Value: 1}}, Options: options.Index().SetName("channel")},
				{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user")},
			},
		},
		{
			// serves both the latest message lookup and the unread range count
			collection: models.Message{}.CollectionName(),
			indexes: []mongo.IndexModel{
				{
					Keys: bson.D{
						{Key: "channel_id", Value: 1},
						{Key: "timestamp", Value: -1},
					},
					Options: options.Index().SetName("channel_timeline"),
				},
			},
		},
		{
			collection: models.ThreadMessage{}.CollectionName(),
			indexes: []mongo.IndexModel{
				{
					Keys: bson.D{
						{Key: "message_id", Value: 1},
						{Key: "thread_id", Value: 1},
						{Key: "timestamp", Value: 1},
					},
					Options: options.Index().SetName("thread_timeline"),
				},
			},
		},
	}
}

func (r *migrationRepo) EnsureIndexes(ctx context.Context) error {
	for _, plan := range indexPlan() {
		names, err := r.db.Database.Collection(plan.collection).Indexes().CreateMany(ctx, plan.indexes)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", plan.collection, err)
		}
		log.Debugw(ctx, "indexes ensured", "collection", plan.collection, "indexes", names)
	}
	return nil
}
