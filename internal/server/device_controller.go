package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
)

type RegisterDeviceRequest struct {
	UID         string `auth:"uid" validate:"required"`
	Token       string `json:"token" validate:"notblank"`
	DisplayName string `json:"displayName"`
}

type UnregisterDeviceRequest struct {
	UID   string `auth:"uid" validate:"required"`
	Token string `json:"token" validate:"required"`
}

type EditUserRequest struct {
	UID string `auth:"uid" validate:"required"`
	// UUID is the user to edit, the caller when empty.
	UUID        string `json:"uuid"`
	DisplayName string `json:"displayName" validate:"notblank"`
}

type SendNotificationRequest struct {
	UID         string            `auth:"uid" validate:"required"`
	ToUser      string            `json:"toUser" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Content     string            `json:"content"`
	Tag         string            `json:"tag"`
	CollapseKey string            `json:"collapseKey"`
	BadgeCount  *int              `json:"badgeCount" validate:"omitempty,min=0"`
	Data        map[string]string `json:"data"`
}

func (h *controller) RegisterDevice(c echo.Context, req RegisterDeviceRequest) (*models.User, error) {
	return h.devices.RegisterDevice(c.Request().Context(), req.UID, req.Token, req.DisplayName)
}

func (h *controller) UnregisterDevice(c echo.Context, req UnregisterDeviceRequest) (any, error) {
	return nil, h.devices.UnregisterDevice(c.Request().Context(), req.UID, req.Token)
}

func (h *controller) EditUser(c echo.Context, req EditUserRequest) (*models.User, error) {
	uid := req.UUID
	if uid == "" {
		uid = req.UID
	}
	return h.devices.EditUser(c.Request().Context(), uid, req.DisplayName)
}

func (h *controller) SendNotificationToUser(c echo.Context, req SendNotificationRequest) (*usecase.DirectNotificationResult, error) {
	return h.devices.SendNotificationToUser(c.Request().Context(), usecase.DirectNotificationParams{
		ToUser:      req.ToUser,
		Title:       req.Title,
		Content:     req.Content,
		Tag:         req.Tag,
		CollapseKey: req.CollapseKey,
		Badge:       req.BadgeCount,
		Data:        req.Data,
	})
}
