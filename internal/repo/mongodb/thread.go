package mongodb

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ThreadRepository interface {
	// Ensure creates the thread identity document; repeating it is a no-op.
	Ensure(ctx context.Context, thread *models.Thread) error
	InsertMessage(ctx context.Context, msg *models.ThreadMessage) error
}

type threadRepo struct {
	threads  baseRepo[models.Thread]
	messages baseRepo[models.ThreadMessage]
}

func NewThreadRepository(db *DB) ThreadRepository {
	return &threadRepo{
		threads:  newBaseRepo[models.Thread](db),
		messages: newBaseRepo[models.ThreadMessage](db),
	}
}

func (r *threadRepo) Ensure(ctx context.Context, thread *models.Thread) error {
	id := models.ThreadKey(thread.MessageID, thread.ThreadID)
	_, err := r.threads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$setOnInsert": bson.M{
			"channel_id": thread.ChannelID,
			"message_id": thread.MessageID,
			"thread_id":  thread.ThreadID,
			"created_at": thread.CreatedAt,
		},
	}, upsertOpts())
	if err != nil {
		return fmt.Errorf("failed to ensure thread %s: %w", id, err)
	}
	return nil
}

func (r *threadRepo) InsertMessage(ctx context.Context, msg *models.ThreadMessage) error {
	err := r.messages.Insert(ctx, msg)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert thread message %s: %w", msg.ID, ErrDuplicateMessage)
	}
	if err != nil {
		return fmt.Errorf("failed to insert thread message %s: %w", msg.ID, err)
	}
	return nil
}
