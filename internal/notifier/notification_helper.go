package notifier

import (
	"context"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/summary"
	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/rs/zerolog"
)

const sendTimeout = 30 * time.Second

// NotificationHelper decides whether a run summary is sent and sends it.
type NotificationHelper struct {
	discordNotifier *DiscordNotifier
	cfg             config.NotificationConfig
	logger          zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper.
func NewNotificationHelper(dn *DiscordNotifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		discordNotifier: dn,
		cfg:             cfg,
		logger:          logger.With().Str("module", "NotificationHelper").Logger(),
	}
}

// ShouldNotify reports whether a run with this status is sent at all
func (nh *NotificationHelper) ShouldNotify(status summary.RunStatus) bool {
	if nh == nil || nh.discordNotifier == nil || nh.cfg.DiscordWebhookURL == "" {
		return false
	}
	if status.IsFailure() {
		return nh.cfg.NotifyOnFailure
	}
	return nh.cfg.NotifyOnSuccess
}

// SendRunSummary posts the run summary. Failures are logged, never returned.
func (nh *NotificationHelper) SendRunSummary(ctx context.Context, s summary.RunSummary) {
	if !nh.ShouldNotify(s.Status) {
		nh.logger.Debug().Str("status", string(s.Status)).Msg("Run summary notification disabled, skipping")
		return
	}

	// The run context may already be cancelled on shutdown
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	payload := FormatRunSummaryMessage(s)
	if err := nh.discordNotifier.SendNotification(sendCtx, nh.cfg.DiscordWebhookURL, payload); err != nil {
		nh.logger.Error().Err(err).Str("run_id", s.RunID).Msg("Failed to send run summary notification")
		return
	}
	nh.logger.Info().Str("run_id", s.RunID).Msg("Run summary notification sent")
}
