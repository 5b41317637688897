package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateMessage = errors.New("message id already exists")

type MessageRepository interface {
	Insert(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, channelID, messageID string) (*models.Message, error)
	// Latest returns the most recent message of the channel or models.ErrNotFound.
	Latest(ctx context.Context, channelID string) (*models.Message, error)
	// CountAfter counts messages strictly newer than after; nil counts all.
	CountAfter(ctx context.Context, channelID string, after *time.Time) (int64, error)
	// Delete reports false when the message did not exist.
	Delete(ctx context.Context, channelID, messageID string) (bool, error)
}

type messageRepo struct {
	baseRepo[models.Message]
}

func NewMessageRepository(db *DB) MessageRepository {
	return &messageRepo{
		baseRepo: newBaseRepo[models.Message](db),
	}
}

func (r *messageRepo) Insert(ctx context.Context, msg *models.Message) error {
	err := r.baseRepo.Insert(ctx, msg)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert message %s: %w", msg.ID, ErrDuplicateMessage)
	}
	if err != nil {
		return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
	}
	return nil
}

func (r *messageRepo) Get(ctx context.Context, channelID, messageID string) (*models.Message, error) {
	msg, err := r.FindOne(ctx, bson.M{"_id": messageID, "channel_id": channelID})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

func (r *messageRepo) Latest(ctx context.Context, channelID string) (*models.Message, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "timestamp", Value: -1},
		{Key: "_id", Value: -1},
	})
	msg, err := r.FindOne(ctx, bson.M{"channel_id": channelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest message of %s: %w", channelID, err)
	}
	return msg, nil
}

func (r *messageRepo) CountAfter(ctx context.Context, channelID string, after *time.Time) (int64, error) {
	filter := bson.M{"channel_id": channelID}
	if after != nil {
		filter["timestamp"] = bson.M{"$gt": *after}
	}
	n, err := r.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages of %s: %w", channelID, err)
	}
	return n, nil
}

func (r *messageRepo) Delete(ctx context.Context, channelID, messageID string) (bool, error) {
	err := r.DeleteOne(ctx, bson.M{"_id": messageID, "channel_id": channelID})
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	return true, nil
}
