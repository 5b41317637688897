package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DurationBuckets spans a fast store lookup up to a slow multicast batch.
var DurationBuckets = []float64{
	0.001, // 1ms
	0.005,
	0.01, // 10ms
	0.05,
	0.1, // 100 ms
	0.5,
	1.0, // 1s
	2.0,
	5.0,
	10.0, // 10s
	30.0,
}

// Ptr returns pointer of any value.
func Ptr[T any](t T) *T {
	return &t
}

// NewTimeoutContext detaches from the parent's cancellation but keeps its values,
// so background work outlives the request that spawned it.
func NewTimeoutContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}

// Now returns the current UTC time at millisecond precision, the resolution
// BSON dates are stored with.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func GetHistogramVec(name string, labels ...string) (*prometheus.HistogramVec, error) {
	return register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Buckets: DurationBuckets,
	}, labels))
}

func GetCounterVec(name string, labels ...string) (*prometheus.CounterVec, error) {
	return register(prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labels))
}

// register returns the collector already registered under the same
// descriptor when there is one, so constructors can run more than once.
func register[C prometheus.Collector](c C) (C, error) {
	err := prometheus.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	var zero C
	return zero, fmt.Errorf("register: %w", err)
}
