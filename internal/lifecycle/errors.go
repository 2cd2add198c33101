package lifecycle

import (
	"fmt"
	"time"
)

// JobFailedError is a job the remote side reported as failed or timed out
type JobFailedError struct {
	JobID        string
	RemoteStatus string
	Message      string
}

func (e *JobFailedError) Error() string {
	msg := fmt.Sprintf("job '%s' ended with status '%s'", e.JobID, e.RemoteStatus)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *JobFailedError) Kind() string { return "JobFailed" }

// TimeoutError is a job that did not finish within the poll attempt budget or the job deadline
type TimeoutError struct {
	JobID    string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("job '%s' did not complete after %d status checks (%s)", e.JobID, e.Attempts, e.Elapsed.Round(time.Millisecond))
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }
func (e *TimeoutError) Kind() string  { return "TimeoutError" }
