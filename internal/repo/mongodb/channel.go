package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	GetByName(ctx context.Context, name string) (*models.Channel, error)
	// UpdateName and SetReadOnly report whether the channel existed.
	UpdateName(ctx context.Context, id, name string) (bool, error)
	SetReadOnly(ctx context.Context, id string, readOnly bool) (bool, error)
	// Touch records the latest message on the channel.
	Touch(ctx context.Context, id, lastMessageID string, at time.Time) error
}

type channelRepo struct {
	baseRepo[models.Channel]
}

func NewChannelRepository(db *DB) ChannelRepository {
	return &channelRepo{
		baseRepo: newBaseRepo[models.Channel](db),
	}
}

func (r *channelRepo) Create(ctx context.Context, channel *models.Channel) error {
	if err := r.Insert(ctx, channel); err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

func (r *channelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	channel, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel %s: %w", id, err)
	}
	return channel, nil
}

func (r *channelRepo) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	channel, err := r.FindOne(ctx, bson.M{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by name %s: %w", name, err)
	}
	return channel, nil
}

func (r *channelRepo) UpdateName(ctx context.Context, id, name string) (bool, error) {
	matched, err := r.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"name": name},
	})
	if err != nil {
		return false, fmt.Errorf("failed to rename channel %s: %w", id, err)
	}
	return matched, nil
}

func (r *channelRepo) SetReadOnly(ctx context.Context, id string, readOnly bool) (bool, error) {
	matched, err := r.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"read_only": readOnly},
	})
	if err != nil {
		return false, fmt.Errorf("failed to update channel %s: %w", id, err)
	}
	return matched, nil
}

func (r *channelRepo) Touch(ctx context.Context, id, lastMessageID string, at time.Time) error {
	set := bson.M{"last_modified": at}
	if lastMessageID != "" {
		set["last_message_id"] = lastMessageID
	}
	if _, err := r.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to touch channel %s: %w", id, err)
	}
	return nil
}
