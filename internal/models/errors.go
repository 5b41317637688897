package models

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound        = status.Errorf(codes.NotFound, "not found")
	ErrUnauthenticated = status.Errorf(codes.Unauthenticated, "unauthenticated")
)

// Reasons reported to RPC callers in the error_code field.
const (
	ReasonInvalidArgument       = "invalid_argument"
	ReasonFailedPrecondition    = "failed_precondition"
	ReasonUnauthenticated       = "unauthenticated"
	ReasonNotFound              = "not_found"
	ReasonMembershipWriteFailed = "membership_write_failed"
	ReasonMessageWriteFailed    = "message_write_failed"
	ReasonUpstreamFailure       = "upstream_failure"
)

// Error carries a grpc code plus a stable reason so the transport can map it
// to a status code and an error_code without string matching.
type Error struct {
	Code   codes.Code
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Error())
}

func InvalidArgument(format string, args ...any) error {
	return &Error{Code: codes.InvalidArgument, Reason: ReasonInvalidArgument, Err: fmt.Errorf(format, args...)}
}

func FailedPrecondition(format string, args ...any) error {
	return &Error{Code: codes.FailedPrecondition, Reason: ReasonFailedPrecondition, Err: fmt.Errorf(format, args...)}
}

func MembershipWriteFailed(err error) error {
	return &Error{Code: codes.Unavailable, Reason: ReasonMembershipWriteFailed, Err: err}
}

func MessageWriteFailed(err error) error {
	return &Error{Code: codes.Unavailable, Reason: ReasonMessageWriteFailed, Err: err}
}

func UpstreamFailure(err error) error {
	return &Error{Code: codes.Unavailable, Reason: ReasonUpstreamFailure, Err: err}
}

// AsError extracts the typed error from a chain, falling back to the grpc
// status carried by err.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, ErrNotFound) {
		return &Error{Code: codes.NotFound, Reason: ReasonNotFound, Err: err}
	}
	if errors.Is(err, ErrUnauthenticated) {
		return &Error{Code: codes.Unauthenticated, Reason: ReasonUnauthenticated, Err: err}
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return &Error{Code: st.Code(), Reason: ReasonUpstreamFailure, Err: err}
	}
	return &Error{Code: codes.Unknown, Reason: ReasonUpstreamFailure, Err: err}
}

// Outcome tags the result of a multi-step operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial_success"
)
