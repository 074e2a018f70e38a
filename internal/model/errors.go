package model

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPError is a non-200 answer from a remote API. The retry layer and the
// notifiers inspect StatusCode and RetryAfter.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // zero when the server sent no usable hint
	Err        error
}

// NewHTTPError builds an HTTPError from resp, honoring its Retry-After header.
func NewHTTPError(resp *http.Response, err error) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Err:        err,
	}
}

func (e *HTTPError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Retryable reports whether the status is transient: 408, 429 or any 5xx.
func (e *HTTPError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= 500
	}
}

// ParseRetryAfter reads a Retry-After value given either as delta seconds
// ("120") or as an HTTP date. Missing, malformed and past values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
