package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

// RateLimitError is the gateway's view of Telegram flood control. Transport
// errors are normalized at the gateway boundary, so callers never handle
// telebot's error types directly.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("telegram: too many requests, retry after %s", e.RetryAfter)
}

// wrapError translates telebot transport errors into the gateway's own
// types. Anything it does not recognize passes through unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &RateLimitError{RetryAfter: time.Duration(flood.RetryAfter) * time.Second}
	}
	return err
}

// IsNotModified reports whether the error is Telegram's "message is not
// modified" rejection. The throttle treats it as success: the platform
// already shows the content we wanted.
func IsNotModified(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// RetryAfter extracts the flood-control wait hint, if the error carries one.
func RetryAfter(err error) (time.Duration, bool) {
	var limited *RateLimitError
	if errors.As(wrapError(err), &limited) {
		return limited.RetryAfter, true
	}
	return 0, false
}

// IsRetryable reports whether the error is transient (flood control,
// timeout) and worth a bounded retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
