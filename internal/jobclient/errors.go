package jobclient

import (
	"fmt"
)

// SubmissionError is returned when a job could not be created or the file could not be uploaded.
type SubmissionError struct {
	Stage      string // "create" or "upload"
	URL        string
	StatusCode int
	Code       string
	Message    string
	Err        error
	transient  bool
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("job %s failed for '%s'", e.Stage, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" [code %s]", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *SubmissionError) Unwrap() error { return e.Err }
func (e *SubmissionError) Kind() string  { return "SubmissionError" }

// Transient reports whether submitting again may succeed
func (e *SubmissionError) Transient() bool { return e.transient }

// PollError is a status call that could not be completed or understood.
type PollError struct {
	JobID      string
	StatusCode int
	Message    string
	Err        error
}

func (e *PollError) Error() string {
	msg := fmt.Sprintf("status poll failed for job '%s'", e.JobID)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *PollError) Unwrap() error { return e.Err }
func (e *PollError) Kind() string  { return "PollError" }

// FetchError means the result of a completed job is unavailable.
type FetchError struct {
	JobID      string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("result fetch failed for job '%s'", e.JobID)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }
func (e *FetchError) Kind() string  { return "FetchError" }

// AuthError is raised for codes 401 (bad API key) and 421 (unknown tier).
// Every further call with the same key would fail the same way.
type AuthError struct {
	URL     string
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code == CodeTierNotFound {
		return fmt.Sprintf("tier limit can not be found for '%s' (code %s), verify the API key: %s", e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("authentication failed for '%s' (code %s), verify the API key: %s", e.URL, e.Code, e.Message)
}

func (e *AuthError) Kind() string { return "AuthError" }

// RateLimitError is a 429 that persisted through the transport retries.
type RateLimitError struct {
	URL     string
	Message string
	Err     error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("request limit exceeded for '%s': %s", e.URL, e.Message)
}

func (e *RateLimitError) Unwrap() error { return e.Err }
func (e *RateLimitError) Kind() string  { return "RateLimitError" }
