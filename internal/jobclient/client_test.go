package jobclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/httpclient"
	"github.com/aleister1102/apifileprocessor/internal/jobclient/mockapi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, apiKey string) *Client {
	t.Helper()
	hc, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).WithTimeout(5 * time.Second).Build()
	require.NoError(t, err)
	return NewClient(hc, Options{
		APIKey:      apiKey,
		Scheme:      "http",
		VersionPath: "V5",
		ExtraFields: map[string]string{"origin": "wrapper", "language": "ignored"},
	}, zerolog.Nop())
}

func TestClient_SubmitPollFetch(t *testing.T) {
	server := mockapi.New()
	defer server.Close()
	server.APIKey = "secret"
	server.NextCallInSeconds = 7
	server.ResultName = func(name string) string { return "processed_" + name }

	client := newTestClient(t, "secret")
	ctx := context.Background()

	endpoint := Endpoint{
		URL: server.CreateURL(),
		Instructions: config.JobInstructions{
			"language": "de",
			"pages":    json.Number("2"),
			"tags":     []any{"a", "b"},
			"nested":   map[string]any{"dpi": json.Number("300")},
		},
	}

	ref, err := client.Submit(ctx, FileUpload{Name: "scan.pdf", Data: []byte("pdf-bytes")}, endpoint)
	require.NoError(t, err)
	assert.Equal(t, "job1", ref.JobID)
	assert.Equal(t, server.URL+"/V5", ref.BaseURL)
	assert.Equal(t, []string{"scan.pdf"}, server.Uploaded())

	forms := server.CreateForms()
	require.Len(t, forms, 1)
	assert.Equal(t, []string{"de"}, forms[0]["language"])
	assert.Equal(t, []string{"2"}, forms[0]["pages"])
	assert.Equal(t, []string{"a", "b"}, forms[0]["tags"])
	assert.Equal(t, []string{`{"dpi":300}`}, forms[0]["nested"])
	assert.Equal(t, []string{"wrapper"}, forms[0]["origin"])

	result, err := client.Poll(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, result.Status)
	assert.Equal(t, 7*time.Second, result.WaitHint)
	assert.NotEmpty(t, result.DownloadLink)

	fetched, err := client.Fetch(ctx, ref, result)
	require.NoError(t, err)
	assert.Equal(t, "result:scan.pdf", string(fetched.Data))
	assert.Equal(t, "processed_scan.pdf", fetched.FileName)
}

func TestClient_PollStatusMapping(t *testing.T) {
	tests := []struct {
		remote string
		want   Status
	}{
		{remote: "queued", want: StatusPending},
		{remote: "waiting4files", want: StatusPending},
		{remote: "processing", want: StatusPending},
		{remote: "error", want: StatusPending}, // RATE_LIMIT_EXCEEDED
		{remote: "completed", want: StatusDone},
		{remote: "failed", want: StatusFailed},
		{remote: "timeout", want: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			server := mockapi.New()
			defer server.Close()
			server.StatusFor = func(string, int) string { return tt.remote }

			client := newTestClient(t, "")
			ref, err := client.Submit(context.Background(), FileUpload{Name: "a.txt", Data: []byte("a")}, Endpoint{URL: server.CreateURL()})
			require.NoError(t, err)

			result, err := client.Poll(context.Background(), ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestClient_PollUnknownStatus(t *testing.T) {
	server := mockapi.New()
	defer server.Close()
	server.StatusFor = func(string, int) string { return "exploded" }

	client := newTestClient(t, "")
	ref, err := client.Submit(context.Background(), FileUpload{Name: "a.txt"}, Endpoint{URL: server.CreateURL()})
	require.NoError(t, err)

	_, err = client.Poll(context.Background(), ref)
	var pollErr *PollError
	require.ErrorAs(t, err, &pollErr)
	assert.Equal(t, "job1", pollErr.JobID)
}

func TestClient_SubmitAuthError(t *testing.T) {
	server := mockapi.New()
	defer server.Close()
	server.APIKey = "expected"

	client := newTestClient(t, "wrong")
	_, err := client.Submit(context.Background(), FileUpload{Name: "a.txt"}, Endpoint{URL: server.CreateURL()})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, CodeUnauthorized, authErr.Code)
	assert.Equal(t, "AuthError", authErr.Kind())
}

func TestClient_SubmitErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
		wantAuth      bool
		wantRate      bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantTransient: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"status":"error","code":400,"message":"bad"}`},
		{name: "tier not found", status: http.StatusOK, body: `{"status":"error","code":"421","message":"tier"}`, wantAuth: true},
		{name: "rate limited", status: http.StatusOK, body: `{"status":"error","code":429,"message":"slow down"}`, wantRate: true},
		{name: "unexpected status", status: http.StatusOK, body: `{"status":"queued"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, "")
			_, err := client.Submit(context.Background(), FileUpload{Name: "a.txt"}, Endpoint{URL: server.URL})
			require.Error(t, err)

			switch {
			case tt.wantAuth:
				var authErr *AuthError
				assert.ErrorAs(t, err, &authErr)
			case tt.wantRate:
				var rateErr *RateLimitError
				assert.ErrorAs(t, err, &rateErr)
			default:
				var subErr *SubmissionError
				require.ErrorAs(t, err, &subErr)
				assert.Equal(t, tt.wantTransient, subErr.Transient())
				assert.Equal(t, "create", subErr.Stage)
			}
		})
	}
}

func TestClient_FetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, "")
	ref := JobRef{JobID: "j1", BaseURL: server.URL}

	_, err := client.Fetch(context.Background(), ref, PollResult{Status: StatusDone})
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "download link")

	_, err = client.Fetch(context.Background(), ref, PollResult{Status: StatusDone, DownloadLink: server.URL + "/x"})
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestClient_CancelledContext(t *testing.T) {
	server := mockapi.New()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, "")
	_, err := client.Submit(ctx, FileUpload{Name: "a.txt"}, Endpoint{URL: server.CreateURL()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := map[string]string{
		`attachment; filename="report.pdf"`:       "report.pdf",
		`attachment; filename=plain.txt`:          "plain.txt",
		`attachment; filename="../../etc/passwd"`: "passwd",
		`attachment`:                              "",
		``:                                        "",
	}
	for header, want := range tests {
		assert.Equal(t, want, filenameFromDisposition(header), header)
	}
}

func TestAssignedBaseURL(t *testing.T) {
	client := NewClient(nil, Options{Scheme: "https", VersionPath: "/V5/"}, zerolog.Nop())
	assert.Equal(t, "https://api7.example.com/V5", client.assignedBaseURL("api7.example.com"))
	assert.Equal(t, "http://localhost:8080/V5", client.assignedBaseURL("http://localhost:8080/"))
}
