package middleware

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
)

const (
	requestDurationMetric = "request_duration_seconds"
	metricsPath           = "/metrics"
	notFoundPath          = "/not-found"
)

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

// Metrics observes every request in a histogram labelled by status, method
// and route, and serves the prometheus registry on /metrics. Unmatched
// requests share one path label to keep cardinality bounded.
func Metrics() echo.MiddlewareFunc {
	durations, err := util.GetHistogramVec(requestDurationMetric, "code", "method", "path")
	if err != nil {
		panic(fmt.Errorf("http metrics: %w", err))
	}
	promHandler := echo.WrapHandler(promhttp.Handler())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.URL.Path == metricsPath {
				return promHandler(c)
			}

			path := c.Path()
			if isNotFoundHandler(c.Handler()) {
				path = notFoundPath
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			durations.
				WithLabelValues(strconv.Itoa(c.Response().Status), req.Method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
