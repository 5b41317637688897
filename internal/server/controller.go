package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
)

type Controller interface {
	Health(c echo.Context) error

	CreateChannel(c echo.Context, req CreateChannelRequest) (*usecase.CreateChannelResult, error)
	RenameChannel(c echo.Context, req RenameChannelRequest) (any, error)
	DeactivateChannel(c echo.Context, req ChannelRequest) (any, error)
	AddMember(c echo.Context, req AddMemberRequest) (any, error)
	AddMembers(c echo.Context, req AddMembersRequest) (*usecase.AddMembersResult, error)
	RemoveMember(c echo.Context, req RemoveMemberRequest) (any, error)

	SendMessage(c echo.Context, req SendMessageRequest) (*models.Message, error)
	SendThreadMessage(c echo.Context, req SendThreadMessageRequest) (*models.ThreadMessage, error)
	DeleteMessage(c echo.Context, req MessageRequest) (any, error)
	SetTyping(c echo.Context, req ChannelRequest) (any, error)
	SetAllMessagesAsRead(c echo.Context, req ChannelRequest) (any, error)
	MarkReadMessageForMember(c echo.Context, req MessageRequest) (any, error)
	GetBadgeCount(c echo.Context, req BadgeCountRequest) (*BadgeCountResponse, error)

	RegisterDevice(c echo.Context, req RegisterDeviceRequest) (*models.User, error)
	UnregisterDevice(c echo.Context, req UnregisterDeviceRequest) (any, error)
	EditUser(c echo.Context, req EditUserRequest) (*models.User, error)
	SendNotificationToUser(c echo.Context, req SendNotificationRequest) (*usecase.DirectNotificationResult, error)
}

type controller struct {
	membership usecase.MembershipUsecase
	messages   usecase.MessageUsecase
	readState  usecase.ReadStateUsecase
	devices    usecase.DeviceUsecase
}

func NewController(
	membership usecase.MembershipUsecase,
	messages usecase.MessageUsecase,
	readState usecase.ReadStateUsecase,
	devices usecase.DeviceUsecase,
) Controller {
	return &controller{
		membership: membership,
		messages:   messages,
		readState:  readState,
		devices:    devices,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chat-notify",
	})
}
