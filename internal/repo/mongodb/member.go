package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

type MemberRepository interface {
	// Upsert creates the member with the given cursor, or reactivates an
	// existing one while keeping its cursor.
	Upsert(ctx context.Context, member *models.Member) error
	Get(ctx context.Context, channelID, userID string) (*models.Member, error)
	ListByChannel(ctx context.Context, channelID string) ([]*models.Member, error)
	// Delete reports false when there was no member to delete.
	Delete(ctx context.Context, channelID, userID string) (bool, error)
	// AdvanceLastSeen moves the cursor forward to at; an older at leaves it
	// unchanged. Reports whether the member exists.
	AdvanceLastSeen(ctx context.Context, channelID, userID string, at time.Time) (bool, error)
	SetTyping(ctx context.Context, channelID, userID string, at time.Time) (bool, error)
}

type memberRepo struct {
	baseRepo[models.Member]
}

func NewMemberRepository(db *DB) MemberRepository {
	return &memberRepo{
		baseRepo: newBaseRepo[models.Member](db),
	}
}

func (r *memberRepo) Upsert(ctx context.Context, member *models.Member) error {
	id := models.MemberID(member.ChannelID, member.UserID)
	_, err := r.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$setOnInsert": bson.M{
			"channel_id": member.ChannelID,
			"user_id":    member.UserID,
			"last_seen":  member.LastSeen,
			"joined_at":  member.JoinedAt,
		},
		"$set": bson.M{
			"type":   member.Type,
			"active": member.Active,
		},
	}, upsertOpts())
	if err != nil {
		return fmt.Errorf("failed to upsert member %s: %w", id, err)
	}
	return nil
}

func (r *memberRepo) Get(ctx context.Context, channelID, userID string) (*models.Member, error) {
	member, err := r.FindByID(ctx, models.MemberID(channelID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

func (r *memberRepo) ListByChannel(ctx context.Context, channelID string) ([]*models.Member, error) {
	members, err := r.Find(ctx, bson.M{"channel_id": channelID})
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", channelID, err)
	}
	return members, nil
}

func (r *memberRepo) Delete(ctx context.Context, channelID, userID string) (bool, error) {
	err := r.DeleteOne(ctx, bson.M{"_id": models.MemberID(channelID, userID)})
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}
	return true, nil
}

func (r *memberRepo) AdvanceLastSeen(ctx context.Context, channelID, userID string, at time.Time) (bool, error) {
	// $max against a null cursor always takes the date, since null sorts first.
	matched, err := r.UpdateOne(ctx, bson.M{"_id": models.MemberID(channelID, userID)}, bson.M{
		"$max": bson.M{"last_seen": at},
	})
	if err != nil {
		return false, fmt.Errorf("failed to advance last seen: %w", err)
	}
	return matched, nil
}

func (r *memberRepo) SetTyping(ctx context.Context, channelID, userID string, at time.Time) (bool, error) {
	matched, err := r.UpdateOne(ctx, bson.M{"_id": models.MemberID(channelID, userID)}, bson.M{
		"$set": bson.M{"last_typing": at},
	})
	if err != nil {
		return false, fmt.Errorf("failed to set typing: %w", err)
	}
	return matched, nil
}
