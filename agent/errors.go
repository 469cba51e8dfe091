package agent

import (
	"errors"
	"fmt"
	"time"
)

// Error types for classifying agent invocation failures.

// TimeoutError reports a subprocess that exceeded its deadline. The workflow
// converts it into a human checkpoint instead of failing.
type TimeoutError struct {
	Agent   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent %s timed out after %s", e.Agent, e.Timeout)
}

// ExitError reports a subprocess that exited non-zero.
type ExitError struct {
	Agent  string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("agent %s exited with code %d: %s", e.Agent, e.Code, e.Stderr)
}

// EmptyOutputError reports a subprocess that produced no stdout at all.
type EmptyOutputError struct {
	Agent string
}

func (e *EmptyOutputError) Error() string {
	return fmt.Sprintf("agent %s returned empty output", e.Agent)
}

// ParseError reports output that could not be parsed even after salvage.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SpawnError reports a subprocess that could not be launched.
type SpawnError struct {
	Agent string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn agent %s: %v", e.Agent, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// CancelledError reports a call aborted by its caller before completion.
type CancelledError struct {
	Agent string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("agent %s cancelled", e.Agent)
}

// IsTimeout returns true if the error is a subprocess timeout.
func IsTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

// IsNonzeroExit returns true if the error is a non-zero subprocess exit.
func IsNonzeroExit(err error) bool {
	var e *ExitError
	return errors.As(err, &e)
}

// IsEmptyOutput returns true if the error is an empty-stdout failure.
func IsEmptyOutput(err error) bool {
	var e *EmptyOutputError
	return errors.As(err, &e)
}

// IsParseFailure returns true if the error is an output parse failure.
func IsParseFailure(err error) bool {
	var p *ParseError
	return errors.As(err, &p)
}

// IsSpawnError returns true if the error is a subprocess launch failure.
func IsSpawnError(err error) bool {
	var s *SpawnError
	return errors.As(err, &s)
}

// IsCancelled returns true if the error is a caller-initiated cancellation.
func IsCancelled(err error) bool {
	var c *CancelledError
	return errors.As(err, &c)
}
