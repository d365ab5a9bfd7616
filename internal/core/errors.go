package core

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a negative lookup result. It is an outcome, not a failure.
var ErrNotFound = errors.New("not found")

// TransportError wraps network failures and timeouts.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FormatError reports a payload that could not be unwrapped or decoded.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NotFoundError names the source that had no match.
type NotFoundError struct {
	Source string
}

func (e *NotFoundError) Error() string {
	if e.Source == "" {
		return ErrNotFound.Error()
	}
	return e.Source + ": " + ErrNotFound.Error()
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConfigError is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrorKind maps an error onto a short label for logs and metrics.
func ErrorKind(err error) string {
	var (
		transportErr *TransportError
		formatErr    *FormatError
		configErr    *ConfigError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &formatErr):
		return "format"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}
