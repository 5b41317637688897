package mongodb

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
	"go.mongodb.org/mongo-driver/bson"
)

type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.User, error)
	// Ensure creates the user when absent and returns the stored document.
	// Fields of an existing user are left as they are.
	Ensure(ctx context.Context, user *models.User) (*models.User, error)
	// UpsertDisplayName renames the user, creating it when absent.
	UpsertDisplayName(ctx context.Context, uid, displayName string) (*models.User, error)
	AddChannel(ctx context.Context, uid, channelID string) error
	RemoveChannel(ctx context.Context, uid, channelID string) error
	AddToken(ctx context.Context, uid, token string) error
	RemoveToken(ctx context.Context, uid, token string) error
	// RevokeToken pulls token from every user except exceptUID.
	RevokeToken(ctx context.Context, token, exceptUID string) (int64, error)
}

type userRepo struct {
	baseRepo[models.User]
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepo{
		baseRepo: newBaseRepo[models.User](db),
	}
}

func (r *userRepo) GetByID(ctx context.Context, uid string) (*models.User, error) {
	user, err := r.FindByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", uid, err)
	}
	return user, nil
}

func newUserOnInsert(user *models.User) bson.M {
	userType := user.Type
	if userType == "" {
		userType = models.UserTypeUser
	}
	return bson.M{
		"display_name": user.DisplayName,
		"type":         userType,
		"tokens":       bson.A{},
		"channels":     bson.A{},
		"created_at":   util.Now(),
	}
}

func (r *userRepo) Ensure(ctx context.Context, user *models.User) (*models.User, error) {
	stored, err := r.UpsertOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$setOnInsert": newUserOnInsert(user),
		"$set":         bson.M{"updated_at": util.Now()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", user.ID, err)
	}
	return stored, nil
}

func (r *userRepo) UpsertDisplayName(ctx context.Context, uid, displayName string) (*models.User, error) {
	onInsert := newUserOnInsert(&models.User{ID: uid})
	delete(onInsert, "display_name")

	stored, err := r.UpsertOne(ctx, bson.M{"_id": uid}, bson.M{
		"$setOnInsert": onInsert,
		"$set": bson.M{
			"display_name": displayName,
			"updated_at":   util.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", uid, err)
	}
	return stored, nil
}

func (r *userRepo) AddChannel(ctx context.Context, uid, channelID string) error {
	if _, err := r.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$addToSet": bson.M{"channels": channelID},
	}); err != nil {
		return fmt.Errorf("failed to add channel %s to user %s: %w", channelID, uid, err)
	}
	return nil
}

func (r *userRepo) RemoveChannel(ctx context.Context, uid, channelID string) error {
	if _, err := r.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$pull": bson.M{"channels": channelID},
	}); err != nil {
		return fmt.Errorf("failed to remove channel %s from user %s: %w", channelID, uid, err)
	}
	return nil
}

func (r *userRepo) AddToken(ctx context.Context, uid, token string) error {
	if _, err := r.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$addToSet": bson.M{"tokens": token},
		"$set":      bson.M{"updated_at": util.Now()},
	}); err != nil {
		return fmt.Errorf("failed to add token to user %s: %w", uid, err)
	}
	return nil
}

func (r *userRepo) RemoveToken(ctx context.Context, uid, token string) error {
	if _, err := r.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$pull": bson.M{"tokens": token},
		"$set":  bson.M{"updated_at": util.Now()},
	}); err != nil {
		return fmt.Errorf("failed to remove token from user %s: %w", uid, err)
	}
	return nil
}

func (r *userRepo) RevokeToken(ctx context.Context, token, exceptUID string) (int64, error) {
	n, err := r.UpdateMany(ctx,
		bson.M{"tokens": token, "_id": bson.M{"$ne": exceptUID}},
		bson.M{"$pull": bson.M{"tokens": token}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke token: %w", err)
	}
	return n, nil
}
