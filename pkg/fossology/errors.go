package fossology

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParameterViolation lists the values of one parameter which are not part
// of the parameter's enumeration.
type ParameterViolation struct {
	Name   string
	Values []string
}

// InvalidParameterError is returned before any request is sent when a caller
// passes values outside of a documented enumeration.
type InvalidParameterError struct {
	Violations []ParameterViolation
}

func (e *InvalidParameterError) Error() string {
	parts := []string{}
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("invalid %v: %v", v.Name, strings.Join(v.Values, ",")))
	}
	return strings.Join(parts, "; ")
}

// Values returns all offending values in the order they were passed.
func (e *InvalidParameterError) Values() []string {
	values := []string{}
	for _, v := range e.Violations {
		values = append(values, v.Values...)
	}
	return values
}

// ServerError is returned when the server answers with an unexpected status
// code. Message is empty when the response body could not be decoded.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if len(e.Message) == 0 {
		return fmt.Sprintf("fossology server returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("fossology server returned HTTP %d: %v", e.StatusCode, e.Message)
}

// JobFailureError is returned when a scheduled job ended in state Failed.
type JobFailureError struct {
	JobID int
}

func (e *JobFailureError) Error() string {
	return fmt.Sprintf("fossology job %d failed", e.JobID)
}

// RetryAfter signals that the requested resource is still being computed.
// It is not an error: the operation was successful but has no result yet.
type RetryAfter struct {
	Seconds int
}

// Duration returns the waiting time as a duration.
func (r *RetryAfter) Duration() time.Duration {
	return time.Duration(r.Seconds) * time.Second
}

const defaultRetryAfterSeconds = 3

func retryAfter(r *apiResponse) *RetryAfter {
	seconds, err := strconv.Atoi(strings.TrimSpace(r.header.Get("Retry-After")))
	if err != nil || seconds < 0 {
		seconds = defaultRetryAfterSeconds
	}
	return &RetryAfter{Seconds: seconds}
}
