package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
)

type MessageRequest struct {
	UID       string `auth:"uid" validate:"required"`
	ChatID    string `json:"chatId" validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
}

type SendMessageRequest struct {
	UID         string              `auth:"uid" validate:"required"`
	ChatID      string              `json:"chatId" validate:"required"`
	MessageID   string              `json:"messageId"`
	Type        models.MessageType  `json:"type" validate:"omitempty,oneof=text image video"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments"`
	Mentions    []string            `json:"mentions"`
}

type SendThreadMessageRequest struct {
	UID             string              `auth:"uid" validate:"required"`
	ChatID          string              `json:"chatId" validate:"required"`
	MessageID       string              `json:"messageId" validate:"required"`
	ThreadID        string              `json:"threadId" validate:"required"`
	ThreadMessageID string              `json:"threadMessageId"`
	Type            models.MessageType  `json:"type" validate:"omitempty,oneof=text image video"`
	Content         string              `json:"content"`
	Attachments     []models.Attachment `json:"attachments"`
}

type BadgeCountRequest struct {
	UID string `auth:"uid" validate:"required"`
}

type BadgeCountResponse struct {
	Badge    int                    `json:"badge"`
	Channels []models.ChannelUnread `json:"channels"`
}

func (h *controller) SendMessage(c echo.Context, req SendMessageRequest) (*models.Message, error) {
	return h.messages.SendMessage(c.Request().Context(), usecase.SendMessageParams{
		ChannelID:   req.ChatID,
		UserID:      req.UID,
		MessageID:   req.MessageID,
		Content:     req.Content,
		Type:        req.Type,
		Attachments: req.Attachments,
		Mentions:    req.Mentions,
	})
}

func (h *controller) SendThreadMessage(c echo.Context, req SendThreadMessageRequest) (*models.ThreadMessage, error) {
	return h.messages.SendThreadMessage(c.Request().Context(), usecase.SendThreadMessageParams{
		SendMessageParams: usecase.SendMessageParams{
			ChannelID:   req.ChatID,
			UserID:      req.UID,
			MessageID:   req.ThreadMessageID,
			Content:     req.Content,
			Type:        req.Type,
			Attachments: req.Attachments,
		},
		ParentID: req.MessageID,
		ThreadID: req.ThreadID,
	})
}

func (h *controller) DeleteMessage(c echo.Context, req MessageRequest) (any, error) {
	return nil, h.messages.DeleteMessage(c.Request().Context(), req.ChatID, req.MessageID)
}

func (h *controller) SetTyping(c echo.Context, req ChannelRequest) (any, error) {
	return nil, h.messages.SetTyping(c.Request().Context(), req.ChatID, req.UID)
}

func (h *controller) SetAllMessagesAsRead(c echo.Context, req ChannelRequest) (any, error) {
	return nil, h.readState.MarkRead(c.Request().Context(), req.ChatID, req.UID)
}

func (h *controller) MarkReadMessageForMember(c echo.Context, req MessageRequest) (any, error) {
	return nil, h.readState.MarkReadUpTo(c.Request().Context(), req.ChatID, req.UID, req.MessageID)
}

func (h *controller) GetBadgeCount(c echo.Context, req BadgeCountRequest) (*BadgeCountResponse, error) {
	unreads, err := h.readState.UnreadCounts(c.Request().Context(), req.UID)
	if err != nil {
		return nil, err
	}
	resp := &BadgeCountResponse{Channels: unreads}
	for _, u := range unreads {
		resp.Badge += int(u.Unread)
	}
	return resp, nil
}
