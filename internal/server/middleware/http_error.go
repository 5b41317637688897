package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
)

// ErrorHandler return custom http error handler.
// With the swallow policy, upstream failures are logged and answered with an
// empty success; caller mistakes are always reported.
func ErrorHandler(log Logger, policy config.ErrorPolicy) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := &ResponseError{
			Status:  http.StatusInternalServerError,
			Success: false,
			Err:     err,
		}

		var (
			he *echo.HTTPError
			re *ResponseError
		)
		switch {
		case errors.As(err, &re):
			resp = re
		case errors.As(err, &he):
			resp.Status = he.Code
			resp.ErrorCode = reasonForStatus(he.Code)
			resp.ErrorMessage = fmt.Sprint(he.Message)
		case errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled:
			// detect canceled request error
			resp.Status = 499
		default:
			e := models.AsError(err)
			resp.Status = httpStatus(e.Code)
			resp.ErrorCode = e.Reason
			resp.ErrorMessage = e.Error()
		}

		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if policy == config.ErrorPolicySwallow && resp.Status >= http.StatusInternalServerError {
			log.Errorw("error swallowed", "code", resp.Status, "error_code", resp.ErrorCode, "error", err)
			if err := c.JSON(http.StatusOK, &Response{Success: true}); err != nil {
				log.Errorw("could not response", "code", http.StatusOK)
			}
			return
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition, codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func reasonForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return models.ReasonInvalidArgument
	case http.StatusUnauthorized:
		return models.ReasonUnauthenticated
	case http.StatusNotFound:
		return models.ReasonNotFound
	default:
		return ""
	}
}
