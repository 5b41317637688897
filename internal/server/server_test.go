package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(_ context.Context, token string) (string, error) {
	uid, ok := v[token]
	if !ok {
		return "", models.ErrUnauthenticated
	}
	return uid, nil
}

// stubUsecases records calls and returns canned results for every usecase
// the controller depends on.
type stubUsecases struct {
	calls []string
	err   error

	markRead    [2]string
	sendParams  usecase.SendMessageParams
	unreads     []models.ChannelUnread
	addResult   *usecase.AddMembersResult
	editedUID   string
	threadInput usecase.SendThreadMessageParams
}

func (s *stubUsecases) record(name string) { s.calls = append(s.calls, name) }

func (s *stubUsecases) CreateChannel(_ context.Context, p usecase.CreateChannelParams) (*usecase.CreateChannelResult, error) {
	s.record("CreateChannel")
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.CreateChannelResult{ChannelID: "c1", Members: usecase.AddMembersResult{Outcome: models.OutcomeSuccess}}, nil
}

func (s *stubUsecases) RenameChannel(context.Context, string, string) error {
	s.record("RenameChannel")
	return s.err
}

func (s *stubUsecases) DeactivateChannel(context.Context, string) error {
	s.record("DeactivateChannel")
	return s.err
}

func (s *stubUsecases) AddMember(context.Context, string, usecase.MemberInput) error {
	s.record("AddMember")
	return s.err
}

func (s *stubUsecases) AddMembers(context.Context, string, []usecase.MemberInput) (*usecase.AddMembersResult, error) {
	s.record("AddMembers")
	return s.addResult, s.err
}

func (s *stubUsecases) RemoveMember(context.Context, string, string) error {
	s.record("RemoveMember")
	return s.err
}

func (s *stubUsecases) EnsureChannel(context.Context, usecase.CreateChannelParams) (*models.Channel, bool, error) {
	s.record("EnsureChannel")
	return &models.Channel{}, false, s.err
}

func (s *stubUsecases) SendMessage(_ context.Context, p usecase.SendMessageParams) (*models.Message, error) {
	s.record("SendMessage")
	s.sendParams = p
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{ID: "m1", ChannelID: p.ChannelID, UserID: p.UserID, Content: p.Content}, nil
}

func (s *stubUsecases) SendThreadMessage(_ context.Context, p usecase.SendThreadMessageParams) (*models.ThreadMessage, error) {
	s.record("SendThreadMessage")
	s.threadInput = p
	return &models.ThreadMessage{MessageID: p.ParentID, ThreadID: p.ThreadID}, s.err
}

func (s *stubUsecases) DeleteMessage(context.Context, string, string) error {
	s.record("DeleteMessage")
	return s.err
}

func (s *stubUsecases) SetTyping(context.Context, string, string) error {
	s.record("SetTyping")
	return s.err
}

func (s *stubUsecases) MarkRead(_ context.Context, channelID, userID string) error {
	s.record("MarkRead")
	s.markRead = [2]string{channelID, userID}
	return s.err
}

func (s *stubUsecases) MarkReadUpTo(context.Context, string, string, string) error {
	s.record("MarkReadUpTo")
	return s.err
}

func (s *stubUsecases) BadgeCount(context.Context, string) (int, error) {
	s.record("BadgeCount")
	return 0, s.err
}

func (s *stubUsecases) UnreadCounts(context.Context, string) ([]models.ChannelUnread, error) {
	s.record("UnreadCounts")
	return s.unreads, s.err
}

func (s *stubUsecases) RegisterDevice(_ context.Context, uid, token, _ string) (*models.User, error) {
	s.record("RegisterDevice")
	return &models.User{ID: uid, Tokens: []string{token}}, s.err
}

func (s *stubUsecases) UnregisterDevice(context.Context, string, string) error {
	s.record("UnregisterDevice")
	return s.err
}

func (s *stubUsecases) EditUser(_ context.Context, uid, displayName string) (*models.User, error) {
	s.record("EditUser")
	s.editedUID = uid
	return &models.User{ID: uid, DisplayName: displayName}, s.err
}

func (s *stubUsecases) SendNotificationToUser(context.Context, usecase.DirectNotificationParams) (*usecase.DirectNotificationResult, error) {
	s.record("SendNotificationToUser")
	return &usecase.DirectNotificationResult{Delivered: 1}, s.err
}

type envelope struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data"`
	ErrorCode    string          `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

func newTestServer(t *testing.T, policy config.ErrorPolicy) (*echo.Echo, *stubUsecases) {
	t.Helper()
	stub := &stubUsecases{}
	conf := &config.Config{
		Server:      config.ServerConfig{CORSOrigins: ".*"},
		ErrorPolicy: policy,
	}
	e, err := NewEcho(conf, NewController(stub, stub, stub, stub), staticVerifier{"good": "alice"})
	require.NoError(t, err)
	return e, stub
}

func call(t *testing.T, e *echo.Echo, op, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/"+op, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, config.ErrorPolicySurface)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthentication(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)

	for _, token := range []string{"", "bad"} {
		code, env := call(t, e, "sendMessage", token, `{"chatId":"c1","content":"hi"}`)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.False(t, env.Success)
		assert.Equal(t, models.ReasonUnauthenticated, env.ErrorCode)
	}
	assert.Empty(t, stub.calls)
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		op   string
		body string
		call string
	}{
		{"createChannel", `{"name":"general","type":"group","users":[{"uid":"bob"}]}`, "CreateChannel"},
		{"renameChannel", `{"chatId":"c1","name":"random"}`, "RenameChannel"},
		{"deactivateChannel", `{"chatId":"c1"}`, "DeactivateChannel"},
		{"addMember", `{"chatId":"c1","user":{"uid":"bob"}}`, "AddMember"},
		{"addMembers", `{"chatId":"c1","users":[{"uid":"bob"}]}`, "AddMembers"},
		{"removeMember", `{"chatId":"c1","userId":"bob"}`, "RemoveMember"},
		{"registerDevice", `{"token":"t1","displayName":"Alice"}`, "RegisterDevice"},
		{"editUser", `{"displayName":"Alice"}`, "EditUser"},
		{"unregisterDevice", `{"token":"t1"}`, "UnregisterDevice"},
		{"sendMessage", `{"chatId":"c1","content":"hi"}`, "SendMessage"},
		{"sendThreadMessage", `{"chatId":"c1","messageId":"m1","threadId":"t1","content":"hi"}`, "SendThreadMessage"},
		{"deleteMessage", `{"chatId":"c1","messageId":"m1"}`, "DeleteMessage"},
		{"setAllMessagesAsRead", `{"chatId":"c1"}`, "MarkRead"},
		{"markReadMessageForMember", `{"chatId":"c1","messageId":"m1"}`, "MarkReadUpTo"},
		{"setTyping", `{"chatId":"c1"}`, "SetTyping"},
		{"sendNotificationToUser", `{"toUser":"bob","title":"hi"}`, "SendNotificationToUser"},
		{"getBadgeCount", `{}`, "UnreadCounts"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			e, stub := newTestServer(t, config.ErrorPolicySurface)
			code, env := call(t, e, tt.op, "good", tt.body)
			assert.Equal(t, http.StatusOK, code)
			assert.True(t, env.Success)
			assert.Equal(t, []string{tt.call}, stub.calls)
		})
	}
}

func TestSendMessageUsesCaller(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)

	// a uid in the body never overrides the token's identity
	code, env := call(t, e, "sendMessage", "good", `{"chatId":"c1","content":"hi","uid":"mallory"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", stub.sendParams.UserID)

	var msg models.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "c1", msg.ChannelID)
}

func TestSetAllMessagesAsRead(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)
	code, _ := call(t, e, "setAllMessagesAsRead", "good", `{"chatId":"c1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, [2]string{"c1", "alice"}, stub.markRead)
}

func TestEditUserDefaultsToCaller(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)
	_, _ = call(t, e, "editUser", "good", `{"displayName":"Alice"}`)
	assert.Equal(t, "alice", stub.editedUID)

	_, _ = call(t, e, "editUser", "good", `{"uuid":"bob","displayName":"Bob"}`)
	assert.Equal(t, "bob", stub.editedUID)
}

func TestGetBadgeCount(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)
	stub.unreads = []models.ChannelUnread{{ChannelID: "c1", Unread: 2}, {ChannelID: "c2", Unread: 3}}

	code, env := call(t, e, "getBadgeCount", "good", `{}`)
	require.Equal(t, http.StatusOK, code)

	var resp BadgeCountResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 5, resp.Badge)
	assert.Len(t, resp.Channels, 2)
}

func TestAddMembersPartial(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)
	stub.addResult = &usecase.AddMembersResult{
		Outcome:  models.OutcomePartial,
		Added:    []string{"bob"},
		Failures: []usecase.MemberFailure{{UID: "carol", Error: "membership_write_failed"}},
	}

	code, env := call(t, e, "addMembers", "good", `{"chatId":"c1","users":[{"uid":"bob"},{"uid":"carol"}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	var res usecase.AddMembersResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.OutcomePartial, res.Outcome)
	assert.Equal(t, "carol", res.Failures[0].UID)
}

func TestValidation(t *testing.T) {
	e, stub := newTestServer(t, config.ErrorPolicySurface)

	tests := []struct {
		op   string
		body string
	}{
		{"sendMessage", `{"content":"hi"}`},
		{"sendMessage", `{"chatId":"c1","type":"audio"}`},
		{"createChannel", `{"name":"  "}`},
		{"addMembers", `{"chatId":"c1","users":[{"displayName":"no uid"}]}`},
		{"registerDevice", `{"token":""}`},
		{"sendThreadMessage", `{"chatId":"c1","content":"hi"}`},
	}
	for _, tt := range tests {
		code, env := call(t, e, tt.op, "good", tt.body)
		assert.Equal(t, http.StatusBadRequest, code, tt.body)
		assert.Equal(t, models.ReasonInvalidArgument, env.ErrorCode, tt.body)
	}
	assert.Empty(t, stub.calls)
}

func TestErrorPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   config.ErrorPolicy
		err      error
		wantCode int
		wantErr  string
	}{
		{"surface invalid argument", config.ErrorPolicySurface, models.InvalidArgument("bad"), http.StatusBadRequest, models.ReasonInvalidArgument},
		{"surface failed precondition", config.ErrorPolicySurface, models.FailedPrecondition("read only"), http.StatusConflict, models.ReasonFailedPrecondition},
		{"surface write failure", config.ErrorPolicySurface, models.MessageWriteFailed(errors.New("down")), http.StatusBadGateway, models.ReasonMessageWriteFailed},
		{"surface unknown error", config.ErrorPolicySurface, errors.New("oops"), http.StatusInternalServerError, models.ReasonUpstreamFailure},
		{"swallow write failure", config.ErrorPolicySwallow, models.MessageWriteFailed(errors.New("down")), http.StatusOK, ""},
		{"swallow keeps caller mistakes", config.ErrorPolicySwallow, models.InvalidArgument("bad"), http.StatusBadRequest, models.ReasonInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, stub := newTestServer(t, tt.policy)
			stub.err = tt.err

			code, env := call(t, e, "sendMessage", "good", `{"chatId":"c1","content":"hi"}`)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, env.ErrorCode)
			assert.Equal(t, tt.wantCode == http.StatusOK, env.Success)
		})
	}
}
