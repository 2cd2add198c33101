package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/summary"
	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []DiscordMessagePayload
	status   int
}

func (wr *webhookRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var p DiscordMessagePayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))

		wr.mu.Lock()
		wr.payloads = append(wr.payloads, p)
		status := wr.status
		wr.mu.Unlock()

		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	}
}

func (wr *webhookRecorder) count() int {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	return len(wr.payloads)
}

func sampleSummary(status summary.RunStatus) summary.RunSummary {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return summary.RunSummary{
		RunID:            "run-42",
		Status:           status,
		StartTime:        start,
		EndTime:          start.Add(90 * time.Second),
		Duration:         90 * time.Second,
		FoldersProcessed: 1,
		FoldersFailed:    1,
		FilesSucceeded:   4,
		FilesFailed:      1,
		Folders: []summary.FolderSummary{
			{FolderPath: "/data/in", Succeeded: 4, Failed: 1},
			{FolderPath: "/data/missing", Error: "folder does not exist"},
		},
		ErrorMessages: []string{"/data/missing: folder does not exist"},
	}
}

func newHelper(t *testing.T, url string, cfg config.NotificationConfig) *NotificationHelper {
	t.Helper()
	dn, err := NewDiscordNotifier(zerolog.Nop(), nil)
	require.NoError(t, err)
	cfg.DiscordWebhookURL = url
	return NewNotificationHelper(dn, cfg, zerolog.Nop())
}

func TestFormatRunSummaryMessage(t *testing.T) {
	p := FormatRunSummaryMessage(sampleSummary(summary.RunStatusFailed))

	require.Len(t, p.Embeds, 1)
	embed := p.Embeds[0]
	assert.Equal(t, DiscordUsername, p.Username)
	assert.Contains(t, embed.Description, "run-42")
	assert.Equal(t, summary.DiscordColorError, embed.Color)
	assert.Equal(t, "2025-06-01T09:01:30Z", embed.Timestamp)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "4", values["Succeeded"])
	assert.Equal(t, "1m30s", values["Duration"])
	assert.Equal(t, "4 ok / 1 failed / 0 skipped", values["/data/in"])
	assert.Equal(t, "error: folder does not exist", values["/data/missing"])
	assert.Contains(t, values["Errors"], "/data/missing")
}

func TestFormatErrorSample_Truncates(t *testing.T) {
	msgs := []string{"a", "b", "c", "d", "e", strings.Repeat("x", 400)}
	out := formatErrorSample(msgs)
	assert.Contains(t, out, "- a")
	assert.Contains(t, out, "(and 3 more)")
	assert.NotContains(t, out, "- d")
}

func TestNotificationHelper_SendRunSummary(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	helper := newHelper(t, server.URL, config.NotificationConfig{NotifyOnFailure: true, NotifyOnSuccess: false})

	helper.SendRunSummary(context.Background(), sampleSummary(summary.RunStatusCompleted))
	assert.Equal(t, 0, rec.count())

	helper.SendRunSummary(context.Background(), sampleSummary(summary.RunStatusCompletedWithIssues))
	assert.Equal(t, 1, rec.count())
}

func TestNotificationHelper_SendsAfterCancel(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	helper := newHelper(t, server.URL, config.NotificationConfig{NotifyOnFailure: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	helper.SendRunSummary(ctx, sampleSummary(summary.RunStatusInterrupted))
	assert.Equal(t, 1, rec.count())
}

func TestNotificationHelper_NoWebhook(t *testing.T) {
	helper := newHelper(t, "", config.NotificationConfig{NotifyOnFailure: true, NotifyOnSuccess: true})
	assert.False(t, helper.ShouldNotify(summary.RunStatusFailed))

	var nilHelper *NotificationHelper
	assert.False(t, nilHelper.ShouldNotify(summary.RunStatusFailed))
}

func TestDiscordNotifier_ErrorStatus(t *testing.T) {
	rec := &webhookRecorder{status: http.StatusBadRequest}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	dn, err := NewDiscordNotifier(zerolog.Nop(), nil)
	require.NoError(t, err)

	err = dn.SendNotification(context.Background(), server.URL, FormatRunSummaryMessage(sampleSummary(summary.RunStatusFailed)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	assert.NoError(t, dn.SendNotification(context.Background(), "", DiscordMessagePayload{}))
	assert.Error(t, dn.SendNotification(context.Background(), "not a url", DiscordMessagePayload{}))
}
