package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeoutContext(t *testing.T) {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))
	ctx, done := NewTimeoutContext(parent, time.Minute)
	defer done()

	cancel()
	assert.NoError(t, ctx.Err(), "detached context must survive parent cancel")
	assert.Equal(t, "v", ctx.Value(key{}))
	_, ok := ctx.Deadline()
	assert.True(t, ok)
}

func TestNow(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))
}

func TestGetHistogramVecRegistersOnce(t *testing.T) {
	a, err := GetHistogramVec("util_test_duration_seconds", "code")
	require.NoError(t, err)
	b, err := GetHistogramVec("util_test_duration_seconds", "code")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestGetCounterVecRegistersOnce(t *testing.T) {
	a, err := GetCounterVec("util_test_total", "status")
	require.NoError(t, err)
	b, err := GetCounterVec("util_test_total", "status")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRegisterConflict(t *testing.T) {
	_, err := GetCounterVec("util_test_conflict", "status")
	require.NoError(t, err)
	// same name with different labels is a different descriptor
	_, err = GetCounterVec("util_test_conflict", "code")
	assert.Error(t, err)
}

func TestPtr(t *testing.T) {
	p := Ptr(3)
	require.NotNil(t, p)
	assert.Equal(t, 3, *p)
}
