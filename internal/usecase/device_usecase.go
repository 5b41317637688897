package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
)

// DeviceUsecase keeps the users' push tokens. A token belongs to at most one
// user at a time.
type DeviceUsecase interface {
	RegisterDevice(ctx context.Context, uid, token, displayName string) (*models.User, error)
	UnregisterDevice(ctx context.Context, uid, token string) error
	EditUser(ctx context.Context, uid, displayName string) (*models.User, error)
	SendNotificationToUser(ctx context.Context, params DirectNotificationParams) (*DirectNotificationResult, error)
}

type DirectNotificationParams struct {
	ToUser      string
	Title       string
	Content     string
	Tag         string
	CollapseKey string
	Badge       *int
	Data        map[string]string
}

type DirectNotificationResult struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

type deviceUsecase struct {
	userRepo   mongodb.UserRepository
	sender     NotificationSender
	deliveries *prometheus.CounterVec
}

func NewDeviceUsecase(userRepo mongodb.UserRepository, sender NotificationSender) (DeviceUsecase, error) {
	deliveries, err := util.GetCounterVec("direct_notification_tokens_total", "status")
	if err != nil {
		return nil, fmt.Errorf("get counter vec: %w", err)
	}
	return &deviceUsecase{
		userRepo:   userRepo,
		sender:     sender,
		deliveries: deliveries,
	}, nil
}

func (uc *deviceUsecase) RegisterDevice(ctx context.Context, uid, token, displayName string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if uid == "" || token == "" {
		return nil, models.InvalidArgument("uid and token are required")
	}

	if _, err := uc.userRepo.Ensure(ctx, &models.User{
		ID:          uid,
		DisplayName: displayName,
		Type:        models.UserTypeUser,
	}); err != nil {
		return nil, models.MembershipWriteFailed(err)
	}

	revoked, err := uc.userRepo.RevokeToken(ctx, token, uid)
	if err != nil {
		return nil, models.MembershipWriteFailed(err)
	}
	if revoked > 0 {
		log.Infow(ctx, "token moved from other users", "user_id", uid, "revoked", revoked)
	}
	if err := uc.userRepo.AddToken(ctx, uid, token); err != nil {
		return nil, models.MembershipWriteFailed(err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, models.UpstreamFailure(err)
	}
	log.Infow(ctx, "device registered", "user_id", uid, "tokens", len(user.Tokens))
	return user, nil
}

func (uc *deviceUsecase) UnregisterDevice(ctx context.Context, uid, token string) error {
	if uid == "" || token == "" {
		return models.InvalidArgument("uid and token are required")
	}
	if err := uc.userRepo.RemoveToken(ctx, uid, token); err != nil {
		return models.MembershipWriteFailed(err)
	}
	log.Infow(ctx, "device unregistered", "user_id", uid)
	return nil
}

func (uc *deviceUsecase) EditUser(ctx context.Context, uid, displayName string) (*models.User, error) {
	if uid == "" {
		return nil, models.InvalidArgument("uid is required")
	}
	user, err := uc.userRepo.UpsertDisplayName(ctx, uid, strings.TrimSpace(displayName))
	if err != nil {
		return nil, models.MembershipWriteFailed(err)
	}
	return user, nil
}

func (uc *deviceUsecase) SendNotificationToUser(ctx context.Context, params DirectNotificationParams) (*DirectNotificationResult, error) {
	if params.ToUser == "" {
		return nil, models.InvalidArgument("toUser is required")
	}
	result := &DirectNotificationResult{}

	user, err := uc.userRepo.GetByID(ctx, params.ToUser)
	if errors.Is(err, models.ErrNotFound) {
		log.Debugw(ctx, "notification skipped, user not found", "user_id", params.ToUser)
		return result, nil
	}
	if err != nil {
		return nil, models.UpstreamFailure(err)
	}
	if len(user.Tokens) == 0 {
		return result, nil
	}

	n := models.Notification{
		Title:       params.Title,
		Body:        params.Content,
		Badge:       params.Badge,
		CollapseKey: params.CollapseKey,
		Tag:         params.Tag,
		Data:        params.Data,
	}
	result.Delivered, result.Failed = deliver(ctx, uc.sender, uc.userRepo, uc.deliveries, user.ID, user.Tokens, n)
	return result, nil
}
