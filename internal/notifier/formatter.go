package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/summary"
)

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}

func statusTitle(status summary.RunStatus) string {
	switch status {
	case summary.RunStatusCompleted, summary.RunStatusNoFiles:
		return ":white_check_mark: Run Complete"
	case summary.RunStatusCompletedWithIssues:
		return ":warning: Run Completed With Failures"
	case summary.RunStatusInterrupted:
		return ":stop_sign: Run Interrupted"
	default:
		return ":x: Run Failed"
	}
}

// FormatRunSummaryMessage creates a Discord message payload for a finished run.
func FormatRunSummaryMessage(s summary.RunSummary) DiscordMessagePayload {
	description := fmt.Sprintf("**Run ID**: `%s`\n**Status**: %s", s.RunID, s.Status)

	embed := NewDiscordEmbedBuilder().
		WithTitle(statusTitle(s.Status)).
		WithDescription(description).
		WithColor(s.Status.GetColor()).
		WithTimestamp(s.EndTime).
		WithFooter(DiscordUsername).
		AddField("Succeeded", fmt.Sprintf("%d", s.FilesSucceeded), true).
		AddField("Failed", fmt.Sprintf("%d", s.FilesFailed), true).
		AddField("Skipped", fmt.Sprintf("%d", s.FilesSkipped), true).
		AddField("Folders", fmt.Sprintf("%d processed, %d failed", s.FoldersProcessed, s.FoldersFailed), true).
		AddField("Duration", formatDuration(s.Duration), true)

	for _, f := range s.Folders {
		value := fmt.Sprintf("%d ok / %d failed / %d skipped", f.Succeeded, f.Failed, f.Skipped)
		if f.Error != "" {
			value = "error: " + truncateString(f.Error, maxSingleErrorLength)
		}
		embed.AddField(truncateString(f.FolderPath, 256), value, false)
	}

	if len(s.ErrorMessages) > 0 {
		embed.AddField("Errors", formatErrorSample(s.ErrorMessages), false)
	}

	return NewDiscordMessagePayloadBuilder().
		WithUsername(DiscordUsername).
		WithoutMentions().
		AddEmbed(embed.Build()).
		Build()
}

func formatErrorSample(messages []string) string {
	var b strings.Builder
	for i, msg := range messages {
		if i == maxErrorSampleCount {
			fmt.Fprintf(&b, "(and %d more)", len(messages)-maxErrorSampleCount)
			break
		}
		fmt.Fprintf(&b, "- %s\n", truncateString(msg, maxSingleErrorLength))
	}
	return strings.TrimSpace(b.String())
}
