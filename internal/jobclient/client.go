package jobclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/httpclient"
	"github.com/rs/zerolog"
)

// Options configures how the client talks to the assigned job servers
type Options struct {
	APIKey      string
	Scheme      string
	VersionPath string
	ExtraFields map[string]string
}

// OptionsFromConfig converts the api section
func OptionsFromConfig(api config.APIConfig) Options {
	return Options{
		APIKey:      api.APIKey,
		Scheme:      api.AssignedEndpointScheme,
		VersionPath: api.APIVersionPath,
		ExtraFields: api.ExtraFields,
	}
}

// Client implements API on top of the shared HTTP client
type Client struct {
	httpClient *httpclient.HTTPClient
	opts       Options
	logger     zerolog.Logger
}

// NewClient creates a job API client
func NewClient(httpClient *httpclient.HTTPClient, opts Options, logger zerolog.Logger) *Client {
	if opts.Scheme == "" {
		opts.Scheme = config.DefaultAssignedEndpointScheme
	}
	opts.VersionPath = strings.Trim(opts.VersionPath, "/")
	return &Client{
		httpClient: httpClient,
		opts:       opts,
		logger:     logger.With().Str("component", "JobClient").Logger(),
	}
}

var _ API = (*Client)(nil)

// Submit creates a job at the endpoint and uploads the file to the server the job was assigned to.
func (c *Client) Submit(ctx context.Context, file FileUpload, endpoint Endpoint) (JobRef, error) {
	ref, err := c.createJob(ctx, endpoint)
	if err != nil {
		return JobRef{}, err
	}
	c.logger.Debug().Str("job_id", ref.JobID).Str("assigned", ref.BaseURL).Msg("Job waiting for files")

	if err := c.upload(ctx, ref, file); err != nil {
		return JobRef{}, err
	}
	c.logger.Debug().Str("job_id", ref.JobID).Str("file", file.Name).Msg("File queued")
	return ref, nil
}

func (c *Client) createJob(ctx context.Context, endpoint Endpoint) (JobRef, error) {
	form, err := encodeForm(endpoint.Instructions, c.opts.ExtraFields)
	if err != nil {
		return JobRef{}, &SubmissionError{Stage: "create", URL: endpoint.URL, Err: err}
	}
	encoded := form.Encode()

	headers := c.authHeaders()
	headers["Content-Type"] = "application/x-www-form-urlencoded"

	resp, err := c.httpClient.Do(&httpclient.HTTPRequest{
		URL:     endpoint.URL,
		Method:  http.MethodPost,
		Headers: headers,
		BodyFactory: func() (io.Reader, error) {
			return strings.NewReader(encoded), nil
		},
		Context: ctx,
	})
	apiResp, err := c.checkSubmitResponse(ctx, "create", endpoint.URL, resp, err)
	if err != nil {
		return JobRef{}, err
	}

	if apiResp.Status != "waiting4files" || apiResp.JobID == "" || apiResp.AssignedEndpoint == "" {
		return JobRef{}, &SubmissionError{
			Stage:   "create",
			URL:     endpoint.URL,
			Message: fmt.Sprintf("unexpected job status '%s'", apiResp.Status),
		}
	}

	return JobRef{
		JobID:   string(apiResp.JobID),
		BaseURL: c.assignedBaseURL(apiResp.AssignedEndpoint),
	}, nil
}

func (c *Client) upload(ctx context.Context, ref JobRef, file FileUpload) error {
	uploadURL := fmt.Sprintf("%s/job/upload/%s", ref.BaseURL, ref.JobID)

	// The boundary is fixed once so every retry sends an identical body
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(UploadFieldName, file.Name)
	if err != nil {
		return &SubmissionError{Stage: "upload", URL: uploadURL, Err: err}
	}
	if _, err := part.Write(file.Data); err != nil {
		return &SubmissionError{Stage: "upload", URL: uploadURL, Err: err}
	}
	if err := writer.Close(); err != nil {
		return &SubmissionError{Stage: "upload", URL: uploadURL, Err: err}
	}
	payload := body.Bytes()

	headers := c.authHeaders()
	headers["Content-Type"] = writer.FormDataContentType()

	resp, err := c.httpClient.Do(&httpclient.HTTPRequest{
		URL:     uploadURL,
		Method:  http.MethodPost,
		Headers: headers,
		BodyFactory: func() (io.Reader, error) {
			return bytes.NewReader(payload), nil
		},
		Context: ctx,
	})
	apiResp, err := c.checkSubmitResponse(ctx, "upload", uploadURL, resp, err)
	if err != nil {
		return err
	}
	if apiResp.Status != "queued" {
		return &SubmissionError{
			Stage:   "upload",
			URL:     uploadURL,
			Message: fmt.Sprintf("unexpected upload status '%s'", apiResp.Status),
		}
	}
	return nil
}

// checkSubmitResponse translates transport, HTTP and API level failures of the create and upload calls
func (c *Client) checkSubmitResponse(ctx context.Context, stage, url string, resp *httpclient.HTTPResponse, err error) (*apiResponse, error) {
	if err != nil {
		if ctxErr := contextError(ctx, err); ctxErr != nil {
			return nil, ctxErr
		}
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{URL: url, Message: truncateBody(resp.Body), Err: err}
		}
		return nil, &SubmissionError{Stage: stage, URL: url, Err: err, transient: true}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &AuthError{URL: url, Code: CodeUnauthorized, Message: truncateBody(resp.Body)}
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{URL: url, Message: truncateBody(resp.Body)}
	}

	apiResp, decodeErr := decodeResponse(resp.Body)
	if !resp.IsSuccess() {
		subErr := &SubmissionError{
			Stage:      stage,
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    truncateBody(resp.Body),
			transient:  resp.StatusCode >= 500,
		}
		if decodeErr == nil {
			if apiResp.isAuthFailure() {
				return nil, &AuthError{URL: url, Code: string(apiResp.Code), Message: apiResp.Message}
			}
			subErr.Code = string(apiResp.Code)
			if apiResp.Message != "" {
				subErr.Message = apiResp.Message
			}
		}
		return nil, subErr
	}
	if decodeErr != nil {
		return nil, &SubmissionError{Stage: stage, URL: url, StatusCode: resp.StatusCode, Message: "invalid JSON response", Err: decodeErr}
	}

	if apiResp.Status == remoteStatusError {
		switch {
		case apiResp.isAuthFailure():
			return nil, &AuthError{URL: url, Code: string(apiResp.Code), Message: apiResp.Message}
		case apiResp.isRateLimited():
			return nil, &RateLimitError{URL: url, Message: apiResp.Message}
		}
		return nil, &SubmissionError{Stage: stage, URL: url, StatusCode: resp.StatusCode, Code: string(apiResp.Code), Message: apiResp.Message}
	}
	return apiResp, nil
}

// Poll asks the assigned server for the job status.
func (c *Client) Poll(ctx context.Context, ref JobRef) (PollResult, error) {
	statusURL := fmt.Sprintf("%s/job/status/%s", ref.BaseURL, ref.JobID)

	resp, err := c.httpClient.Do(&httpclient.HTTPRequest{
		URL:     statusURL,
		Method:  http.MethodGet,
		Headers: c.authHeaders(),
		Context: ctx,
	})
	if err != nil {
		if ctxErr := contextError(ctx, err); ctxErr != nil {
			return PollResult{}, ctxErr
		}
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return PollResult{Status: StatusPending, Message: RateLimitMarker}, nil
		}
		return PollResult{}, &PollError{JobID: ref.JobID, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return PollResult{}, &AuthError{URL: statusURL, Code: CodeUnauthorized, Message: truncateBody(resp.Body)}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return PollResult{Status: StatusPending, Message: RateLimitMarker}, nil
	}

	apiResp, decodeErr := decodeResponse(resp.Body)
	if decodeErr != nil {
		return PollResult{}, &PollError{JobID: ref.JobID, StatusCode: resp.StatusCode, Message: truncateBody(resp.Body), Err: decodeErr}
	}
	if !resp.IsSuccess() && apiResp.Status != remoteStatusError {
		return PollResult{}, &PollError{JobID: ref.JobID, StatusCode: resp.StatusCode, Message: truncateBody(resp.Body)}
	}

	result := PollResult{
		RemoteStatus: apiResp.Status,
		DownloadLink: apiResp.DownloadLink,
		Message:      apiResp.Message,
		WaitHint:     apiResp.waitHint(),
	}

	switch apiResp.Status {
	case "queued", "waiting4files", "processing":
		result.Status = StatusPending
	case "completed":
		result.Status = StatusDone
	case "failed", "timeout":
		result.Status = StatusFailed
	case remoteStatusError:
		switch {
		case apiResp.isAuthFailure():
			return PollResult{}, &AuthError{URL: statusURL, Code: string(apiResp.Code), Message: apiResp.Message}
		case apiResp.isRateLimited():
			result.Status = StatusPending
		default:
			return PollResult{}, &PollError{JobID: ref.JobID, StatusCode: resp.StatusCode, Message: apiResp.Message}
		}
	default:
		return PollResult{}, &PollError{JobID: ref.JobID, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unknown job status '%s'", apiResp.Status)}
	}
	return result, nil
}

// Fetch downloads the result of a completed job. The download link may point
// to another host, so no credentials are sent with it.
func (c *Client) Fetch(ctx context.Context, ref JobRef, result PollResult) (*FetchResult, error) {
	if result.DownloadLink == "" {
		return nil, &FetchError{JobID: ref.JobID, Message: "download link not available"}
	}

	resp, err := c.httpClient.Do(&httpclient.HTTPRequest{
		URL:     result.DownloadLink,
		Method:  http.MethodGet,
		Headers: map[string]string{"Accept": "*/*"},
		Context: ctx,
	})
	if err != nil {
		if ctxErr := contextError(ctx, err); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{JobID: ref.JobID, URL: result.DownloadLink, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{JobID: ref.JobID, URL: result.DownloadLink, StatusCode: resp.StatusCode, Message: truncateBody(resp.Body)}
	}

	return &FetchResult{
		Data:        resp.Body,
		FileName:    filenameFromDisposition(resp.Header("Content-Disposition")),
		ContentType: resp.Header("Content-Type"),
	}, nil
}

func (c *Client) authHeaders() map[string]string {
	headers := map[string]string{}
	if c.opts.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.opts.APIKey
	}
	return headers
}

// assignedBaseURL builds the per-job base URL. A value that already carries a
// scheme is used as is.
func (c *Client) assignedBaseURL(assigned string) string {
	assigned = strings.TrimRight(strings.TrimSpace(assigned), "/")
	if !strings.Contains(assigned, "://") {
		assigned = c.opts.Scheme + "://" + assigned
	}
	if c.opts.VersionPath == "" {
		return assigned
	}
	return assigned + "/" + c.opts.VersionPath
}

// contextError reports a failure caused by the caller's context rather than
// the remote side, so it is not mistaken for a submit or poll error.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return ctxErr
	}
	return nil
}
