// Package apperr classifies failures into the kinds callers can act on.
// Every error carries an i18n message id so the HTTP edge can render a
// user-safe, localized message without exposing wrapped internals.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the classification of an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind  Kind
	MsgID string
	Data  map[string]any
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.MsgID
	if len(e.Data) > 0 {
		msg += fmt.Sprintf(" %v", e.Data)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// With returns a copy of e carrying an extra template value.
func (e *Error) With(key string, value any) *Error {
	data := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	cp := *e
	cp.Data = data
	return &cp
}

func NotFound(msgID string) *Error     { return &Error{Kind: KindNotFound, MsgID: msgID} }
func BadRequest(msgID string) *Error   { return &Error{Kind: KindBadRequest, MsgID: msgID} }
func Forbidden(msgID string) *Error    { return &Error{Kind: KindForbidden, MsgID: msgID} }
func Unauthorized(msgID string) *Error { return &Error{Kind: KindUnauthorized, MsgID: msgID} }
func Conflict(msgID string) *Error     { return &Error{Kind: KindConflict, MsgID: msgID} }

// Internal wraps err as an internal failure shown to users as msgID.
func Internal(msgID string, err error) *Error {
	return &Error{Kind: KindInternal, MsgID: msgID, Err: err}
}

// KindOf returns the kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the classified error, wrapping unclassified ones as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("InternalError", err)
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Classify lets NotFound, BadRequest and Forbidden through unchanged and
// reclassifies everything else as an internal failure shown as msgID.
func Classify(err error, msgID string) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindNotFound, KindBadRequest, KindForbidden:
		return err
	default:
		return Internal(msgID, err)
	}
}
