package dwd

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes failures talking to DWD open data
type ErrorCode string

const (
	ErrCodeInvalidRequest      ErrorCode = "invalid_request"
	ErrCodeNotFound            ErrorCode = "not_found"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamFailure     ErrorCode = "upstream_failure"
	ErrCodeInvalidResponse     ErrorCode = "invalid_response"
)

// Error is returned by every DWD query
type Error struct {
	Code       ErrorCode
	Message    string
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("DWD %s: %s", e.Code, e.Message)
	if e.URL != "" {
		msg += "\nRequest URL: " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error without request context
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not a DWD error
func CodeOf(err error) ErrorCode {
	var dwdErr *Error
	if errors.As(err, &dwdErr) {
		return dwdErr.Code
	}
	return ""
}
