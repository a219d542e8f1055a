package fastbody

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBodyUsed is returned by consuming operations on a body whose
// consumption has already begun.
//
// A body is consumed at most once; obtain a second copy with Clone
// before the first consuming operation.
var ErrBodyUsed = errors.New("body has already been consumed")

// ErrCloneAfterUse is returned by Clone on a consumed body.
//
// This is a usage error, not a runtime fault - clone before reading.
var ErrCloneAfterUse = errors.New("cannot clone a body after it has been consumed")

// ErrBodyAborted is the cancellation error recorded by Abort(nil).
//
// Errors matching ErrBodyAborted, ErrBodyTimeout, context.Canceled or
// context.DeadlineExceeded propagate through consumption unmodified
// instead of being wrapped into *SystemError.
var ErrBodyAborted = errors.New("body read aborted")

// ErrNoTranscoder is returned by TextConverted when no Transcoder
// has been configured via WithTranscoder.
var ErrNoTranscoder = errors.New("charset transcoder is not configured")

// ErrContentEncodingUnsupported is returned by Uncompressed
// if the given Content-Encoding value isn't supported.
var ErrContentEncodingUnsupported = errors.New("unsupported Content-Encoding")

// ErrBodyTooLarge is matched via errors.Is by *BodyTooLargeError
// faults.
var ErrBodyTooLarge = errors.New("body size exceeds the given limit")

// ErrBodyTimeout is matched via errors.Is by *BodyTimeoutError faults.
var ErrBodyTimeout = errors.New("body was not consumed within the given timeout")

// BodyTooLargeError is returned when the accumulated body would exceed
// MaxSize bytes. The bytes accepted before rejection are discarded and
// accumulation stops, so memory use stays bounded near MaxSize.
type BodyTooLargeError struct {
	MaxSize int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("body size exceeds the given limit: max %d bytes", e.MaxSize)
}

// Is reports whether target is ErrBodyTooLarge, so callers may match
// the fault without inspecting the limit.
func (e *BodyTooLargeError) Is(target error) bool {
	return target == ErrBodyTooLarge
}

// BodyTimeoutError is returned when consumption doesn't settle within
// the configured timeout.
type BodyTimeoutError struct {
	Timeout time.Duration
	URL     string
}

func (e *BodyTimeoutError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("body was not consumed within the %s timeout", e.Timeout)
	}
	return fmt.Sprintf("body for %s was not consumed within the %s timeout", e.URL, e.Timeout)
}

// Is reports whether target is ErrBodyTimeout.
func (e *BodyTimeoutError) Is(target error) bool {
	return target == ErrBodyTimeout
}

// SystemError wraps an underlying stream or transcoding fault,
// preserving the original message and carrying the body's diagnostic
// URL, if any.
type SystemError struct {
	URL string
	Err error
}

func (e *SystemError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("body read failed: %s", e.Err)
	}
	return fmt.Sprintf("body read for %s failed: %s", e.URL, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// InvalidJSONError is returned by JSON when the consumed body cannot
// be parsed, carrying the parser's message and the body's diagnostic
// URL, if any.
type InvalidJSONError struct {
	URL string
	Err error
}

func (e *InvalidJSONError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("invalid json body: %s", e.Err)
	}
	return fmt.Sprintf("invalid json body at %s: %s", e.URL, e.Err)
}

func (e *InvalidJSONError) Unwrap() error {
	return e.Err
}

// isAbortError reports whether err is a cancellation rather than a
// transport fault. Cancellations pass through consumption unmodified.
func isAbortError(err error) bool {
	return errors.Is(err, ErrBodyAborted) ||
		errors.Is(err, ErrBodyTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
