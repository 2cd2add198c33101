package summary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SummaryBuilder collects folder results while a run is in progress. The
// Record methods are safe for concurrent use.
type SummaryBuilder struct {
	logger     zerolog.Logger
	runID      string
	configPath string
	startTime  time.Time

	filesSucceeded atomic.Int64
	filesFailed    atomic.Int64
	filesSkipped   atomic.Int64

	mu       sync.Mutex
	folders  []FolderSummary
	errorMsg []string
}

// NewSummaryBuilder creates a new SummaryBuilder for one run
func NewSummaryBuilder(runID, configPath string, startTime time.Time, logger zerolog.Logger) *SummaryBuilder {
	return &SummaryBuilder{
		logger:     logger.With().Str("module", "SummaryBuilder").Logger(),
		runID:      runID,
		configPath: configPath,
		startTime:  startTime,
	}
}

// RecordFile counts one file outcome
func (sb *SummaryBuilder) RecordFile(succeeded, skipped bool) {
	switch {
	case skipped:
		sb.filesSkipped.Add(1)
	case succeeded:
		sb.filesSucceeded.Add(1)
	default:
		sb.filesFailed.Add(1)
	}
}

// RecordFolder stores the summary of a finished folder
func (sb *SummaryBuilder) RecordFolder(fs FolderSummary) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.folders = append(sb.folders, fs)
	if fs.Error != "" {
		sb.errorMsg = append(sb.errorMsg, fs.FolderPath+": "+fs.Error)
	}
}

// BuildSummary creates the final run summary. runErr is the error that
// stopped the run early, if any.
func (sb *SummaryBuilder) BuildSummary(endTime time.Time, runErr error) RunSummary {
	sb.mu.Lock()
	folders := append([]FolderSummary(nil), sb.folders...)
	errorMessages := append([]string(nil), sb.errorMsg...)
	sb.mu.Unlock()

	summary := RunSummary{
		RunID:          sb.runID,
		ConfigPath:     sb.configPath,
		Folders:        folders,
		FilesSucceeded: int(sb.filesSucceeded.Load()),
		FilesFailed:    int(sb.filesFailed.Load()),
		FilesSkipped:   int(sb.filesSkipped.Load()),
		StartTime:      sb.startTime,
		EndTime:        endTime,
		Duration:       endTime.Sub(sb.startTime),
		ErrorMessages:  errorMessages,
	}
	for _, f := range folders {
		if f.Error != "" {
			summary.FoldersFailed++
		} else {
			summary.FoldersProcessed++
		}
	}

	sb.determineStatus(&summary, runErr)
	return summary
}

// determineStatus determines the final run status based on folder and file results
func (sb *SummaryBuilder) determineStatus(summary *RunSummary, runErr error) {
	switch {
	case runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)):
		summary.Status = RunStatusInterrupted
	case runErr != nil:
		summary.Status = RunStatusFailed
		summary.ErrorMessages = append(summary.ErrorMessages, runErr.Error())
	case summary.FoldersFailed > 0:
		summary.Status = RunStatusFailed
	case summary.FilesFailed > 0 || summary.FilesSkipped > 0:
		summary.Status = RunStatusCompletedWithIssues
	case summary.TotalFiles() == 0:
		summary.Status = RunStatusNoFiles
	default:
		summary.Status = RunStatusCompleted
	}
}
