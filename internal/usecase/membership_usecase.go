package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
)

type MembershipUsecase interface {
	CreateChannel(ctx context.Context, params CreateChannelParams) (*CreateChannelResult, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	// DeactivateChannel makes the channel read only.
	DeactivateChannel(ctx context.Context, channelID string) error
	AddMember(ctx context.Context, channelID string, member MemberInput) error
	// AddMembers adds every member it can and reports the ones it could not.
	AddMembers(ctx context.Context, channelID string, members []MemberInput) (*AddMembersResult, error)
	RemoveMember(ctx context.Context, channelID, userID string) error
	// EnsureChannel returns the channel named name, creating it when absent.
	EnsureChannel(ctx context.Context, params CreateChannelParams) (*models.Channel, bool, error)
}

type MemberInput struct {
	UID         string          `json:"uid" validate:"required"`
	DisplayName string          `json:"displayName"`
	Type        models.UserType `json:"type"`
}

type CreateChannelParams struct {
	Name    string
	Type    models.ChannelType
	Private bool
	Members []MemberInput
}

type MemberFailure struct {
	UID   string `json:"uid"`
	Error string `json:"error"`
}

type AddMembersResult struct {
	Outcome  models.Outcome  `json:"outcome"`
	Added    []string        `json:"added"`
	Failures []MemberFailure `json:"failures,omitempty"`
}

type CreateChannelResult struct {
	ChannelID string           `json:"chatId"`
	Members   AddMembersResult `json:"members"`
}

type membershipUsecase struct {
	channelRepo mongodb.ChannelRepository
	memberRepo  mongodb.MemberRepository
	userRepo    mongodb.UserRepository
	messageRepo mongodb.MessageRepository
	clock       Clock
}

func NewMembershipUsecase(
	channelRepo mongodb.ChannelRepository,
	memberRepo mongodb.MemberRepository,
	userRepo mongodb.UserRepository,
	messageRepo mongodb.MessageRepository,
	clock Clock,
) MembershipUsecase {
	return &membershipUsecase{
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		clock:       clock,
	}
}

func (uc *membershipUsecase) CreateChannel(ctx context.Context, params CreateChannelParams) (*CreateChannelResult, error) {
	channel, err := uc.createChannel(ctx, params)
	if err != nil {
		return nil, err
	}

	added, err := uc.AddMembers(ctx, channel.ID, params.Members)
	if err != nil {
		return nil, err
	}
	return &CreateChannelResult{ChannelID: channel.ID, Members: *added}, nil
}

func (uc *membershipUsecase) createChannel(ctx context.Context, params CreateChannelParams) (*models.Channel, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, models.InvalidArgument("channel name is required")
	}
	if params.Type == "" {
		params.Type = models.ChannelTypeGroup
	}
	if !params.Type.Valid() {
		return nil, models.InvalidArgument("invalid channel type %q", params.Type)
	}

	now := uc.clock.Now()
	channel := &models.Channel{
		ID:           primitive.NewObjectID().Hex(),
		Name:         name,
		Type:         params.Type,
		Private:      params.Private,
		ReadOnly:     false,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := uc.channelRepo.Create(ctx, channel); err != nil {
		return nil, models.MembershipWriteFailed(err)
	}
	log.Infow(ctx, "channel created", "channel_id", channel.ID, "name", channel.Name, "type", channel.Type)
	return channel, nil
}

func (uc *membershipUsecase) EnsureChannel(ctx context.Context, params CreateChannelParams) (*models.Channel, bool, error) {
	existing, err := uc.channelRepo.GetByName(ctx, params.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, models.UpstreamFailure(err)
	}
	channel, err := uc.createChannel(ctx, params)
	if err != nil {
		return nil, false, err
	}
	return channel, true, nil
}

func (uc *membershipUsecase) RenameChannel(ctx context.Context, channelID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.InvalidArgument("channel name is required")
	}
	found, err := uc.channelRepo.UpdateName(ctx, channelID, name)
	if err != nil {
		return models.MembershipWriteFailed(err)
	}
	if !found {
		log.Debugw(ctx, "rename skipped, channel not found", "channel_id", channelID)
	}
	return nil
}

func (uc *membershipUsecase) DeactivateChannel(ctx context.Context, channelID string) error {
	found, err := uc.channelRepo.SetReadOnly(ctx, channelID, true)
	if err != nil {
		return models.MembershipWriteFailed(err)
	}
	if !found {
		log.Debugw(ctx, "deactivate skipped, channel not found", "channel_id", channelID)
	}
	return nil
}

// AddMember writes the user side of the index first, then the member. Every
// step is an idempotent upsert so a failed call can simply be repeated.
// Adding to a channel that does not exist does nothing.
func (uc *membershipUsecase) AddMember(ctx context.Context, channelID string, in MemberInput) error {
	_, err := uc.addMember(ctx, channelID, in)
	return err
}

func (uc *membershipUsecase) channelExists(ctx context.Context, channelID string) (bool, error) {
	_, err := uc.channelRepo.GetByID(ctx, channelID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.UpstreamFailure(err)
	}
	return true, nil
}

func (uc *membershipUsecase) addMember(ctx context.Context, channelID string, in MemberInput) (bool, error) {
	if in.UID == "" {
		return false, models.InvalidArgument("member uid is required")
	}
	exists, err := uc.channelExists(ctx, channelID)
	if err != nil {
		return false, err
	}
	if !exists {
		log.Debugw(ctx, "add member skipped, channel not found", "channel_id", channelID, "user_id", in.UID)
		return false, nil
	}
	if in.Type == "" {
		in.Type = models.UserTypeUser
	}

	if _, err := uc.userRepo.Ensure(ctx, &models.User{
		ID:          in.UID,
		DisplayName: in.DisplayName,
		Type:        in.Type,
	}); err != nil {
		return false, models.MembershipWriteFailed(err)
	}
	if err := uc.userRepo.AddChannel(ctx, in.UID, channelID); err != nil {
		return false, models.MembershipWriteFailed(err)
	}

	cursor, err := uc.joinCursor(ctx, channelID)
	if err != nil {
		return false, models.UpstreamFailure(err)
	}
	member := &models.Member{
		ChannelID: channelID,
		UserID:    in.UID,
		Type:      in.Type,
		Active:    true,
		LastSeen:  cursor,
		JoinedAt:  uc.clock.Now(),
	}
	if err := uc.memberRepo.Upsert(ctx, member); err != nil {
		return false, models.MembershipWriteFailed(err)
	}
	log.Infow(ctx, "member added", "channel_id", channelID, "user_id", in.UID)
	return true, nil
}

// joinCursor places a new member's cursor on the latest message, so the
// backlog from before the join is not unread. Empty channels give nil.
func (uc *membershipUsecase) joinCursor(ctx context.Context, channelID string) (*time.Time, error) {
	latest, err := uc.messageRepo.Latest(ctx, channelID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get join cursor: %w", err)
	}
	return util.Ptr(latest.Timestamp), nil
}

func (uc *membershipUsecase) AddMembers(ctx context.Context, channelID string, members []MemberInput) (*AddMembersResult, error) {
	result := &AddMembersResult{
		Outcome: models.OutcomeSuccess,
		Added:   make([]string, 0, len(members)),
	}
	exists, err := uc.channelExists(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Debugw(ctx, "add members skipped, channel not found", "channel_id", channelID)
		return result, nil
	}
	for _, m := range members {
		added, err := uc.addMember(ctx, channelID, m)
		if err == nil {
			if added {
				result.Added = append(result.Added, m.UID)
			}
			continue
		}
		log.Warnw(ctx, "failed to add member", "channel_id", channelID, "user_id", m.UID, "error", err)
		result.Failures = append(result.Failures, MemberFailure{UID: m.UID, Error: err.Error()})
	}
	if len(result.Failures) > 0 {
		result.Outcome = models.OutcomePartial
	}
	return result, nil
}

// RemoveMember deletes the member before pulling the channel from the user.
// The two writes are not atomic; repeating the call converges both sides.
func (uc *membershipUsecase) RemoveMember(ctx context.Context, channelID, userID string) error {
	if userID == "" {
		return models.InvalidArgument("member uid is required")
	}
	found, err := uc.memberRepo.Delete(ctx, channelID, userID)
	if err != nil {
		return models.MembershipWriteFailed(err)
	}
	if err := uc.userRepo.RemoveChannel(ctx, userID, channelID); err != nil {
		return models.MembershipWriteFailed(err)
	}
	log.Infow(ctx, "member removed", "channel_id", channelID, "user_id", userID, "existed", found)
	return nil
}
