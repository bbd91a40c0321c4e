package nexpose

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError is returned when the requested environment is not known
// and no explicit URL override was supplied
type ConfigurationError struct {
	Environment string
	Known       []string
}

func (e *ConfigurationError) Error() string {
	if e.Environment == "" {
		return fmt.Sprintf("no Nexpose environment selected (known: %s)", strings.Join(e.Known, ", "))
	}
	return fmt.Sprintf("unknown Nexpose environment %q (known: %s)", e.Environment, strings.Join(e.Known, ", "))
}

// APIError is returned when the API answers with a non-2xx status
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// ConnectionError records a failed connection check. Err is either an *APIError
// or the transport error that prevented a response
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to query API at %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of the check, or 0 when no response was received
func (e *ConnectionError) StatusCode() int {
	var apiErr *APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
