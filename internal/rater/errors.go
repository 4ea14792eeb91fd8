package rater

import (
	"errors"
	"fmt"
)

// Kind classifies a failed rating request
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidURL
	KindNoComments
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNoComments:
		return "no_comments"
	default:
		return "internal"
	}
}

// Error carries the Kind of a failure plus a short, caller-safe message
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, KindInternal for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-safe message of err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}
