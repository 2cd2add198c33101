package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aleister1102/apifileprocessor/internal/httpclient"
	"github.com/rs/zerolog"
)

// DiscordNotifier handles sending notifications to a Discord webhook.
type DiscordNotifier struct {
	logger     zerolog.Logger
	httpClient *httpclient.HTTPClient
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(logger zerolog.Logger, httpClient *httpclient.HTTPClient) (*DiscordNotifier, error) {
	moduleLogger := logger.With().Str("module", "DiscordNotifier").Logger()

	if httpClient == nil {
		var err error
		httpClient, err = httpclient.NewHTTPClientBuilder(logger).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create discord http client: %w", err)
		}
	}

	return &DiscordNotifier{
		logger:     moduleLogger,
		httpClient: httpClient,
	}, nil
}

// SendNotification posts a message payload to the specified Discord webhook URL.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, webhookURL string, payload DiscordMessagePayload) error {
	if webhookURL == "" {
		dn.logger.Debug().Msg("Webhook URL is empty. Skipping Discord notification.")
		return nil
	}

	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("invalid discord webhook url: %w", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := dn.httpClient.Do(&httpclient.HTTPRequest{
		URL:    webhookURL,
		Method: http.MethodPost,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		BodyFactory: func() (io.Reader, error) {
			return bytes.NewReader(payloadJSON), nil
		},
		Context: ctx,
	})
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("discord notification failed with status %d: %s", resp.StatusCode, truncateString(string(resp.Body), 200))
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent successfully")
	return nil
}
