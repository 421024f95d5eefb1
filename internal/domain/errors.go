package domain

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which caller-facing condition occurred
type ErrorKind string

const (
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindSlugConflict   ErrorKind = "SLUG_CONFLICT"
	KindInviteRequired ErrorKind = "INVITE_REQUIRED"
	KindInviteInvalid  ErrorKind = "INVITE_INVALID"
	KindAccessDenied   ErrorKind = "ACCESS_DENIED"
	KindForbidden      ErrorKind = "FORBIDDEN"
	KindInvalidInput   ErrorKind = "INVALID_INPUT"
	KindConflict       ErrorKind = "CONFLICT"
	KindInternal       ErrorKind = "INTERNAL"
)

// Error is a tagged failure returned by the services.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    ErrorKind
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

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrSpaceNotFound      = &Error{Kind: KindNotFound, Message: "space not found"}
	ErrMemberNotFound     = &Error{Kind: KindNotFound, Message: "membership not found"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrSlugConflict       = &Error{Kind: KindSlugConflict, Message: "space slug already taken"}
	ErrInviteRequired     = &Error{Kind: KindInviteRequired, Message: "invite code required"}
	ErrInviteInvalid      = &Error{Kind: KindInviteInvalid, Message: "invalid invite code"}
	ErrAccessDenied       = &Error{Kind: KindAccessDenied, Message: "access denied"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "admin access required"}
	ErrInvalidCredentials = &Error{Kind: KindAccessDenied, Message: "invalid credentials"}
	ErrInvalidToken       = &Error{Kind: KindAccessDenied, Message: "invalid or expired token"}
	ErrPhoneTaken         = &Error{Kind: KindConflict, Message: "phone already registered"}
)

// ErrDuplicate is returned by repositories when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate key")

// InvalidInput returns an INVALID_INPUT error with the given message
func InvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of err, or KindInternal for untagged errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns a message that is safe to show to clients
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
