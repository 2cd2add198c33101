package jobclient

import (
	"context"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
)

// API codes and markers returned by the remote service
const (
	CodeUnauthorized  = "401"
	CodeTierNotFound  = "421"
	CodeRateLimited   = "429"
	RateLimitMarker   = "RATE_LIMIT_EXCEEDED"
	UploadFieldName   = "job_files_0"
	remoteStatusError = "error"
)

// Status is the local view of a remote job
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Endpoint is where jobs are created and the instructions sent with them
type Endpoint struct {
	URL          string
	Instructions config.JobInstructions
}

// EndpointFromConfig converts a folder's endpoint section
func EndpointFromConfig(ec config.EndpointConfig) Endpoint {
	return Endpoint{URL: ec.URL, Instructions: ec.Instructions()}
}

// FileUpload is the content sent for one job
type FileUpload struct {
	Name string
	Data []byte
}

// JobRef identifies a submitted job on its assigned server
type JobRef struct {
	JobID   string
	BaseURL string // <scheme>://<assigned host>/<version>
}

// PollResult is one status observation
type PollResult struct {
	Status       Status
	RemoteStatus string
	DownloadLink string
	Message      string
	// WaitHint is the server's next_call_in_seconds, zero when absent
	WaitHint time.Duration
}

// FetchResult holds a downloaded result
type FetchResult struct {
	Data        []byte
	FileName    string // from Content-Disposition, may be empty
	ContentType string
}

// API is the remote job API as seen by the lifecycle
type API interface {
	Submit(ctx context.Context, file FileUpload, endpoint Endpoint) (JobRef, error)
	Poll(ctx context.Context, ref JobRef) (PollResult, error)
	Fetch(ctx context.Context, ref JobRef, result PollResult) (*FetchResult, error)
}
