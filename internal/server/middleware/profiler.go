package middleware

import (
	"fmt"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/alexcesaro/statsd.v2"
)

type ProfilerConfig struct {
	Log     Logger
	Skipper Skipper
	// Address of the statsd agent, required.
	Address string
	// Prefix of every bucket, "chat" when empty.
	Prefix string
}

// ProfilerWithConfig times every call into the statsd bucket
// <prefix>.rpc.<op>.<status>.
func ProfilerWithConfig(config ProfilerConfig) (echo.MiddlewareFunc, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("statsd address is required")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.Prefix == "" {
		config.Prefix = "chat"
	}

	client, err := statsd.New(statsd.Address(config.Address), statsd.Prefix(config.Prefix))
	if err != nil {
		return nil, fmt.Errorf("connect statsd: %w", err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			t := client.NewTiming()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			op := "unknown"
			if !isNotFoundHandler(c.Handler()) {
				op = path.Base(c.Path())
			}
			bucket := strings.ToLower(fmt.Sprintf("rpc.%s.%d", op, c.Response().Status))
			if config.Log != nil {
				config.Log.Debugf("statsd timing %s", bucket)
			}
			t.Send(bucket)
			return err
		}
	}, nil
}
