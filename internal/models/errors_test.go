package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		code   codes.Code
		reason string
	}{
		{"typed", MessageWriteFailed(errors.New("boom")), codes.Unavailable, ReasonMessageWriteFailed},
		{"wrapped typed", fmt.Errorf("send: %w", InvalidArgument("bad %s", "type")), codes.InvalidArgument, ReasonInvalidArgument},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), codes.NotFound, ReasonNotFound},
		{"unauthenticated", ErrUnauthenticated, codes.Unauthenticated, ReasonUnauthenticated},
		{"grpc status", status.Error(codes.PermissionDenied, "nope"), codes.PermissionDenied, ReasonUpstreamFailure},
		{"plain", errors.New("plain"), codes.Unknown, ReasonUpstreamFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := AsError(tt.err)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.reason, e.Reason)
		})
	}

	assert.Nil(t, AsError(nil))
}

func TestErrorStatus(t *testing.T) {
	err := FailedPrecondition("channel %s is read only", "c1")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "failed_precondition: channel c1 is read only", err.Error())
}
