package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IEntity interface {
	CollectionName() string
}

// baseRepo holds the collection plumbing shared by every repository.
// Documents are keyed by string ids.
type baseRepo[E IEntity] struct {
	coll *mongo.Collection
}

func newBaseRepo[E IEntity](db *DB) baseRepo[E] {
	var entity E
	return baseRepo[E]{
		coll: db.Database.Collection(entity.CollectionName()),
	}
}

func (r *baseRepo[E]) Insert(ctx context.Context, entity *E) error {
	if _, err := r.coll.InsertOne(ctx, entity); err != nil {
		return fmt.Errorf("insert one: %w", err)
	}
	return nil
}

func (r *baseRepo[E]) FindByID(ctx context.Context, id string) (*E, error) {
	return r.FindOne(ctx, bson.M{"_id": id})
}

func (r *baseRepo[E]) FindOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*E, error) {
	var entity E
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepo[E]) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*E, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var entities []*E
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// UpdateOne applies update and reports whether a document matched.
func (r *baseRepo[E]) UpdateOne(ctx context.Context, filter bson.M, update bson.M, opts ...*options.UpdateOptions) (bool, error) {
	result, err := r.coll.UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0 || result.UpsertedCount > 0, nil
}

func (r *baseRepo[E]) UpdateMany(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// UpsertOne applies update with upsert and returns the document after the write.
func (r *baseRepo[E]) UpsertOne(ctx context.Context, filter bson.M, update bson.M) (*E, error) {
	opts := options.
		FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var entity E
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepo[E]) DeleteOne(ctx context.Context, filter bson.M) error {
	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *baseRepo[E]) Count(ctx context.Context, filter bson.M, opts ...*options.CountOptions) (int64, error) {
	return r.coll.CountDocuments(ctx, filter, opts...)
}

func upsertOpts() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
