package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/chat-notify/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-notify/pkg/logger"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

func isHealthCheck(c echo.Context) bool {
	uri := c.Request().RequestURI
	return uri == "/health" || uri == "/metrics"
}

// withoutTokens keeps device tokens out of the request log: they travel in
// the device requests and in the user records returned by them.
func withoutTokens(c echo.Context) bool {
	p := c.Path()
	return !strings.HasSuffix(p, "Device") && !strings.HasSuffix(p, "/editUser")
}

// NewEcho builds the HTTP transport: one POST route per operation under
// /api/v1, all behind bearer authentication.
func NewEcho(conf *config.Config, handler Controller, verifier pkgmdw.TokenVerifier) (*echo.Echo, error) {
	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(httpLog, conf.ErrorPolicy)

	logConfig := pkgmdw.LogRequestConfig{
		Logger:       httpLog,
		Skipper:      isHealthCheck,
		RequestBody:  withoutTokens,
		ResponseBody: withoutTokens,
	}

	origins, err := regexp.Compile(conf.Server.CORSOrigins)
	if err != nil {
		return nil, fmt.Errorf("compile cors origins: %w", err)
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.CORS(origins))
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))
	if conf.Server.StatsdAddress != "" {
		profiler, err := pkgmdw.ProfilerWithConfig(pkgmdw.ProfilerConfig{
			Log:     httpLog,
			Address: conf.Server.StatsdAddress,
			Skipper: isHealthCheck,
		})
		if err != nil {
			return nil, err
		}
		e.Use(profiler)
	}
	if conf.Server.Pprof {
		pkgmdw.PprofWrap(e)
	}

	e.GET("/health", handler.Health)

	api := e.Group("/api/v1", pkgmdw.BearerAuth(verifier, nil))
	routes := map[string]echo.HandlerFunc{
		"createChannel":            pkgmdw.WrapHandler(handler.CreateChannel),
		"renameChannel":            pkgmdw.WrapHandler(handler.RenameChannel),
		"deactivateChannel":        pkgmdw.WrapHandler(handler.DeactivateChannel),
		"addMember":                pkgmdw.WrapHandler(handler.AddMember),
		"addMembers":               pkgmdw.WrapHandler(handler.AddMembers),
		"removeMember":             pkgmdw.WrapHandler(handler.RemoveMember),
		"registerDevice":           pkgmdw.WrapHandler(handler.RegisterDevice),
		"editUser":                 pkgmdw.WrapHandler(handler.EditUser),
		"unregisterDevice":         pkgmdw.WrapHandler(handler.UnregisterDevice),
		"sendMessage":              pkgmdw.WrapHandler(handler.SendMessage),
		"sendThreadMessage":        pkgmdw.WrapHandler(handler.SendThreadMessage),
		"deleteMessage":            pkgmdw.WrapHandler(handler.DeleteMessage),
		"setAllMessagesAsRead":     pkgmdw.WrapHandler(handler.SetAllMessagesAsRead),
		"markReadMessageForMember": pkgmdw.WrapHandler(handler.MarkReadMessageForMember),
		"setTyping":                pkgmdw.WrapHandler(handler.SetTyping),
		"sendNotificationToUser":   pkgmdw.WrapHandler(handler.SendNotificationToUser),
		"getBadgeCount":            pkgmdw.WrapHandler(handler.GetBadgeCount),
	}
	for op, h := range routes {
		api.POST("/"+op, h)
	}

	return e, nil
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(ctx, "HTTP server stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
