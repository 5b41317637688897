package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
)

type ChannelRequest struct {
	UID    string `auth:"uid" validate:"required"`
	ChatID string `json:"chatId" validate:"required"`
}

type CreateChannelRequest struct {
	UID     string                `auth:"uid" validate:"required"`
	Name    string                `json:"name" validate:"notblank"`
	Type    models.ChannelType    `json:"type" validate:"omitempty,oneof=direct group"`
	Private bool                  `json:"private"`
	Users   []usecase.MemberInput `json:"users" validate:"dive"`
}

type RenameChannelRequest struct {
	UID    string `auth:"uid" validate:"required"`
	ChatID string `json:"chatId" validate:"required"`
	Name   string `json:"name" validate:"notblank"`
}

type AddMemberRequest struct {
	UID    string              `auth:"uid" validate:"required"`
	ChatID string              `json:"chatId" validate:"required"`
	User   usecase.MemberInput `json:"user"`
}

type AddMembersRequest struct {
	UID    string                `auth:"uid" validate:"required"`
	ChatID string                `json:"chatId" validate:"required"`
	Users  []usecase.MemberInput `json:"users" validate:"required,dive"`
}

type RemoveMemberRequest struct {
	UID    string `auth:"uid" validate:"required"`
	ChatID string `json:"chatId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

func (h *controller) CreateChannel(c echo.Context, req CreateChannelRequest) (*usecase.CreateChannelResult, error) {
	return h.membership.CreateChannel(c.Request().Context(), usecase.CreateChannelParams{
		Name:    req.Name,
		Type:    req.Type,
		Private: req.Private,
		Members: req.Users,
	})
}

func (h *controller) RenameChannel(c echo.Context, req RenameChannelRequest) (any, error) {
	return nil, h.membership.RenameChannel(c.Request().Context(), req.ChatID, req.Name)
}

func (h *controller) DeactivateChannel(c echo.Context, req ChannelRequest) (any, error) {
	return nil, h.membership.DeactivateChannel(c.Request().Context(), req.ChatID)
}

func (h *controller) AddMember(c echo.Context, req AddMemberRequest) (any, error) {
	return nil, h.membership.AddMember(c.Request().Context(), req.ChatID, req.User)
}

func (h *controller) AddMembers(c echo.Context, req AddMembersRequest) (*usecase.AddMembersResult, error) {
	return h.membership.AddMembers(c.Request().Context(), req.ChatID, req.Users)
}

func (h *controller) RemoveMember(c echo.Context, req RemoveMemberRequest) (any, error) {
	return nil, h.membership.RemoveMember(c.Request().Context(), req.ChatID, req.UserID)
}
