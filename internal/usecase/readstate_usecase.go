package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

// ReadStateUsecase owns the per member read cursor and the unread counts
// derived from it. A cursor is the timestamp of the last read message and
// only ever moves forward.
type ReadStateUsecase interface {
	// MarkRead moves the cursor to the channel's latest message.
	MarkRead(ctx context.Context, channelID, userID string) error
	// MarkReadUpTo moves the cursor to the given message.
	MarkReadUpTo(ctx context.Context, channelID, userID, messageID string) error
	// BadgeCount sums the unread messages over every channel of the user.
	BadgeCount(ctx context.Context, userID string) (int, error)
	UnreadCounts(ctx context.Context, userID string) ([]models.ChannelUnread, error)
}

// badgeConcurrency bounds the unread counts running at once for one user.
const badgeConcurrency = 8

type readStateUsecase struct {
	userRepo    mongodb.UserRepository
	memberRepo  mongodb.MemberRepository
	messageRepo mongodb.MessageRepository
}

func NewReadStateUsecase(
	userRepo mongodb.UserRepository,
	memberRepo mongodb.MemberRepository,
	messageRepo mongodb.MessageRepository,
) ReadStateUsecase {
	return &readStateUsecase{
		userRepo:    userRepo,
		memberRepo:  memberRepo,
		messageRepo: messageRepo,
	}
}

func (uc *readStateUsecase) MarkRead(ctx context.Context, channelID, userID string) error {
	latest, err := uc.messageRepo.Latest(ctx, channelID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return models.UpstreamFailure(err)
	}
	return uc.advance(ctx, channelID, userID, latest)
}

func (uc *readStateUsecase) MarkReadUpTo(ctx context.Context, channelID, userID, messageID string) error {
	msg, err := uc.messageRepo.Get(ctx, channelID, messageID)
	if errors.Is(err, models.ErrNotFound) {
		log.Debugw(ctx, "mark read skipped, message not found", "channel_id", channelID, "message_id", messageID)
		return nil
	}
	if err != nil {
		return models.UpstreamFailure(err)
	}
	return uc.advance(ctx, channelID, userID, msg)
}

func (uc *readStateUsecase) advance(ctx context.Context, channelID, userID string, msg *models.Message) error {
	found, err := uc.memberRepo.AdvanceLastSeen(ctx, channelID, userID, msg.Timestamp)
	if err != nil {
		return models.MembershipWriteFailed(err)
	}
	if !found {
		log.Debugw(ctx, "mark read skipped, not a member", "channel_id", channelID, "user_id", userID)
	}
	return nil
}

func (uc *readStateUsecase) BadgeCount(ctx context.Context, userID string) (int, error) {
	unreads, err := uc.UnreadCounts(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, u := range unreads {
		total += int(u.Unread)
	}
	return total, nil
}

func (uc *readStateUsecase) UnreadCounts(ctx context.Context, userID string) ([]models.ChannelUnread, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return []models.ChannelUnread{}, nil
	}
	if err != nil {
		return nil, models.UpstreamFailure(err)
	}

	counts := make([]*models.ChannelUnread, len(user.Channels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(badgeConcurrency)
	for i, channelID := range user.Channels {
		g.Go(func() error {
			n, err := uc.unread(gctx, channelID, userID)
			if err != nil {
				log.Warnw(ctx, "skip channel in badge count", "channel_id", channelID, "user_id", userID, "error", err)
				return nil
			}
			counts[i] = &models.ChannelUnread{ChannelID: channelID, Unread: n}
			return nil
		})
	}
	_ = g.Wait()

	unreads := make([]models.ChannelUnread, 0, len(counts))
	for _, c := range counts {
		if c != nil {
			unreads = append(unreads, *c)
		}
	}
	return unreads, nil
}

// unread counts messages after the member's cursor. A missing member or an
// empty cursor counts every message of the channel.
func (uc *readStateUsecase) unread(ctx context.Context, channelID, userID string) (int64, error) {
	member, err := uc.memberRepo.Get(ctx, channelID, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return uc.messageRepo.CountAfter(ctx, channelID, nil)
	}
	return uc.messageRepo.CountAfter(ctx, channelID, member.LastSeen)
}
