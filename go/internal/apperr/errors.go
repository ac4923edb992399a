// Package apperr classifies failures so every transport can report them the same way.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
)

// Kind is the failure category of an application error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidState
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// UnavailableMessage is what callers see for infrastructure failures.
const UnavailableMessage = "service temporarily unavailable, please try again later"

// Error is a classified application error. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed input.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown poll, student or option reference.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a clash with existing state, e.g. a duplicate vote.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidState reports a transition not allowed from the current poll status.
func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Infrastructure wraps a storage or transport failure.
func Infrastructure(err error, format string, args ...any) error {
	return &Error{Kind: KindInfrastructure, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the text that may be shown to an end user.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "an unexpected error occurred, please try again"
	}
	if appErr.Kind == KindInfrastructure {
		return UnavailableMessage
	}
	return appErr.Message
}

// HTTPStatus maps err to a REST status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ConnectCode maps err to an RPC status code.
func ConnectCode(err error) connect.Code {
	switch KindOf(err) {
	case KindValidation:
		return connect.CodeInvalidArgument
	case KindNotFound:
		return connect.CodeNotFound
	case KindConflict:
		return connect.CodeAlreadyExists
	case KindInvalidState:
		return connect.CodeFailedPrecondition
	case KindInfrastructure:
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

// ToConnect converts err into a *connect.Error carrying only the public message.
func ToConnect(err error) *connect.Error {
	return connect.NewError(ConnectCode(err), errors.New(PublicMessage(err)))
}
