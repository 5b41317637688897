package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

type MessageUsecase interface {
	SendMessage(ctx context.Context, params SendMessageParams) (*models.Message, error)
	SendThreadMessage(ctx context.Context, params SendThreadMessageParams) (*models.ThreadMessage, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SetTyping(ctx context.Context, channelID, userID string) error
}

type SendMessageParams struct {
	ChannelID string
	UserID    string
	// MessageID is optional; a new id is generated when empty.
	MessageID   string
	Content     string
	Type        models.MessageType
	Attachments []models.Attachment
	Mentions    []string
}

type SendThreadMessageParams struct {
	SendMessageParams
	// ParentID is the message that owns the thread.
	ParentID string
	ThreadID string
}

type messageUsecase struct {
	channelRepo mongodb.ChannelRepository
	memberRepo  mongodb.MemberRepository
	messageRepo mongodb.MessageRepository
	threadRepo  mongodb.ThreadRepository
	readState   ReadStateUsecase
	queue       FanOutQueue
	clock       Clock
}

func NewMessageUsecase(
	channelRepo mongodb.ChannelRepository,
	memberRepo mongodb.MemberRepository,
	messageRepo mongodb.MessageRepository,
	threadRepo mongodb.ThreadRepository,
	readState ReadStateUsecase,
	queue FanOutQueue,
	clock Clock,
) MessageUsecase {
	return &messageUsecase{
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		messageRepo: messageRepo,
		threadRepo:  threadRepo,
		readState:   readState,
		queue:       queue,
		clock:       clock,
	}
}

func (uc *messageUsecase) SendMessage(ctx context.Context, params SendMessageParams) (*models.Message, error) {
	msg, err := uc.newMessage(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := uc.messageRepo.Insert(ctx, msg); err != nil {
		if errors.Is(err, mongodb.ErrDuplicateMessage) {
			return uc.existingMessage(ctx, msg)
		}
		return nil, models.MessageWriteFailed(err)
	}
	log.Infow(ctx, "message sent", "channel_id", msg.ChannelID, "message_id", msg.ID, "user_id", msg.UserID)

	if err := uc.channelRepo.Touch(ctx, msg.ChannelID, msg.ID, msg.Timestamp); err != nil {
		log.Warnw(ctx, "failed to update channel after send", "channel_id", msg.ChannelID, "error", err)
	}
	if err := uc.readState.MarkReadUpTo(ctx, msg.ChannelID, msg.UserID, msg.ID); err != nil {
		log.Warnw(ctx, "failed to mark own message read", "channel_id", msg.ChannelID, "message_id", msg.ID, "error", err)
	}

	uc.enqueue(ctx, models.FanOutJob{
		ChannelID: msg.ChannelID,
		SenderID:  msg.UserID,
		MessageID: msg.ID,
		Content:   msg.Content,
	})
	return msg, nil
}

// existingMessage makes a retried send with the same id succeed without a
// second fan-out.
func (uc *messageUsecase) existingMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	existing, err := uc.messageRepo.Get(ctx, msg.ChannelID, msg.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.FailedPrecondition("message id %s is already used", msg.ID)
	}
	if err != nil {
		return nil, models.UpstreamFailure(err)
	}
	log.Infow(ctx, "message already sent", "channel_id", msg.ChannelID, "message_id", msg.ID)
	return existing, nil
}

func (uc *messageUsecase) SendThreadMessage(ctx context.Context, params SendThreadMessageParams) (*models.ThreadMessage, error) {
	if params.ParentID == "" || params.ThreadID == "" {
		return nil, models.InvalidArgument("message id and thread id are required")
	}
	msg, err := uc.newMessage(ctx, params.SendMessageParams)
	if err != nil {
		return nil, err
	}
	if _, err := uc.messageRepo.Get(ctx, msg.ChannelID, params.ParentID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.FailedPrecondition("message %s does not exist", params.ParentID)
		}
		return nil, models.UpstreamFailure(err)
	}

	if err := uc.threadRepo.Ensure(ctx, &models.Thread{
		ChannelID: msg.ChannelID,
		MessageID: params.ParentID,
		ThreadID:  params.ThreadID,
		CreatedAt: msg.Timestamp,
	}); err != nil {
		return nil, models.MessageWriteFailed(err)
	}

	reply := &models.ThreadMessage{
		Message:   *msg,
		MessageID: params.ParentID,
		ThreadID:  params.ThreadID,
	}
	if err := uc.threadRepo.InsertMessage(ctx, reply); err != nil {
		return nil, models.MessageWriteFailed(err)
	}
	log.Infow(ctx, "thread message sent",
		"channel_id", msg.ChannelID,
		"message_id", params.ParentID,
		"thread_id", params.ThreadID,
		"thread_message_id", msg.ID,
	)

	if err := uc.channelRepo.Touch(ctx, msg.ChannelID, "", msg.Timestamp); err != nil {
		log.Warnw(ctx, "failed to update channel after thread send", "channel_id", msg.ChannelID, "error", err)
	}
	if err := uc.readState.MarkReadUpTo(ctx, msg.ChannelID, msg.UserID, params.ParentID); err != nil {
		log.Warnw(ctx, "failed to mark parent read", "channel_id", msg.ChannelID, "message_id", params.ParentID, "error", err)
	}

	uc.enqueue(ctx, models.FanOutJob{
		ChannelID: msg.ChannelID,
		SenderID:  msg.UserID,
		MessageID: msg.ID,
		ThreadID:  params.ThreadID,
		Content:   msg.Content,
	})
	return reply, nil
}

func (uc *messageUsecase) newMessage(ctx context.Context, params SendMessageParams) (*models.Message, error) {
	if params.ChannelID == "" || params.UserID == "" {
		return nil, models.InvalidArgument("chat id and user id are required")
	}
	if params.Type == "" {
		params.Type = models.MessageTypeText
	}
	if !params.Type.Valid() {
		return nil, models.InvalidArgument("invalid message type %q", params.Type)
	}

	channel, err := uc.channelRepo.GetByID(ctx, params.ChannelID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.FailedPrecondition("channel %s does not exist", params.ChannelID)
	}
	if err != nil {
		return nil, models.UpstreamFailure(err)
	}
	if channel.ReadOnly {
		return nil, models.FailedPrecondition("channel %s is read only", params.ChannelID)
	}

	id := params.MessageID
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	return &models.Message{
		ID:          id,
		ChannelID:   params.ChannelID,
		Content:     params.Content,
		Type:        params.Type,
		Timestamp:   uc.clock.Now(),
		UserID:      params.UserID,
		Attachments: params.Attachments,
		Mentions:    params.Mentions,
	}, nil
}

// enqueue never fails the send; the message is already stored.
func (uc *messageUsecase) enqueue(ctx context.Context, job models.FanOutJob) {
	if err := uc.queue.Enqueue(ctx, job); err != nil {
		log.Errorw(ctx, "failed to enqueue fan-out", "channel_id", job.ChannelID, "message_id", job.MessageID, "error", err)
	}
}

// DeleteMessage removes the message only; its threads stay behind.
func (uc *messageUsecase) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	found, err := uc.messageRepo.Delete(ctx, channelID, messageID)
	if err != nil {
		return models.MessageWriteFailed(err)
	}
	if !found {
		log.Debugw(ctx, "delete skipped, message not found", "channel_id", channelID, "message_id", messageID)
		return nil
	}
	log.Infow(ctx, "message deleted", "channel_id", channelID, "message_id", messageID)
	return nil
}

func (uc *messageUsecase) SetTyping(ctx context.Context, channelID, userID string) error {
	found, err := uc.memberRepo.SetTyping(ctx, channelID, userID, uc.clock.Now())
	if err != nil {
		return models.MembershipWriteFailed(err)
	}
	if !found {
		log.Debugw(ctx, "typing skipped, not a member", "channel_id", channelID, "user_id", userID)
	}
	return nil
}
