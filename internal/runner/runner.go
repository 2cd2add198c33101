package runner

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/errorwrapper"
	"github.com/aleister1102/apifileprocessor/internal/common/summary"
	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/dispatcher"
	"github.com/aleister1102/apifileprocessor/internal/history"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	skippedState = "skipped"
	// earlier failures of a folder logged before it is processed again
	recentFailureLimit = 5
)

// FolderProcessor processes every eligible file of one folder
type FolderProcessor interface {
	ProcessFolder(ctx context.Context, fc config.FolderConfig) dispatcher.FolderReport
}

// HistoryRecorder persists runs and file outcomes
type HistoryRecorder interface {
	RecordRunStart(runID, configPath string, numFolders int, startTime time.Time) error
	RecordRunCompletion(s summary.RunSummary) error
	RecordFileResult(rec history.FileRecord) error
	LastRun(configPath string) (*history.RunRecord, error)
	RecentFailures(folderPath string, limit int) ([]history.FileRecord, error)
}

// SummaryNotifier delivers the summary of a finished run
type SummaryNotifier interface {
	SendRunSummary(ctx context.Context, s summary.RunSummary)
}

// Runner processes the configured folders and aggregates one run summary
type Runner struct {
	folders              FolderProcessor
	history              HistoryRecorder
	notifier             SummaryNotifier
	maxConcurrentFolders int
	configPath           string
	logger               zerolog.Logger
	now                  func() time.Time
}

// NewRunner creates a runner processing at most maxConcurrentFolders folders at once
func NewRunner(folders FolderProcessor, maxConcurrentFolders int, logger zerolog.Logger) *Runner {
	if maxConcurrentFolders <= 0 {
		maxConcurrentFolders = 1
	}
	return &Runner{
		folders:              folders,
		maxConcurrentFolders: maxConcurrentFolders,
		logger:               logger.With().Str("component", "Runner").Logger(),
		now:                  time.Now,
	}
}

// WithHistory records every run in h
func (r *Runner) WithHistory(h HistoryRecorder) *Runner {
	r.history = h
	return r
}

// WithNotifier sends every run summary through n
func (r *Runner) WithNotifier(n SummaryNotifier) *Runner {
	r.notifier = n
	return r
}

// WithConfigPath sets the config path stored with each run
func (r *Runner) WithConfigPath(path string) *Runner {
	r.configPath = path
	return r
}

// Run processes folders in configuration order, at most maxConcurrentFolders
// at a time. The returned error is the context error when the run was
// interrupted; folder and file failures are only reported in the summary.
func (r *Runner) Run(ctx context.Context, folders []config.FolderConfig) (summary.RunSummary, error) {
	runID := uuid.NewString()
	start := r.now()
	log := r.logger.With().Str("run_id", runID).Logger()
	log.Info().Int("folders", len(folders)).Msg("Starting run")

	if r.history != nil {
		r.logPreviousRun(log)
		if err := r.history.RecordRunStart(runID, r.configPath, len(folders), start); err != nil {
			log.Warn().Err(err).Msg("Failed to record run start in history")
		}
	}

	sb := summary.NewSummaryBuilder(runID, r.configPath, start, r.logger)

	var g errgroup.Group
	g.SetLimit(r.maxConcurrentFolders)
	for _, fc := range folders {
		fc := fc
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.processFolder(ctx, runID, fc, sb, log)
			return nil
		})
	}
	_ = g.Wait()

	runErr := ctx.Err()
	sum := sb.BuildSummary(r.now(), runErr)

	if r.history != nil {
		if err := r.history.RecordRunCompletion(sum); err != nil {
			log.Warn().Err(err).Msg("Failed to record run completion in history")
		}
	}
	if r.notifier != nil {
		r.notifier.SendRunSummary(ctx, sum)
	}

	logSummary(log, sum)
	return sum, runErr
}

func (r *Runner) processFolder(ctx context.Context, runID string, fc config.FolderConfig, sb *summary.SummaryBuilder, log zerolog.Logger) {
	if r.history != nil {
		r.logRecentFailures(fc, log)
	}
	report := r.folders.ProcessFolder(ctx, fc)

	for _, res := range report.Files {
		sb.RecordFile(res.Succeeded(), res.Skipped)
		if r.history == nil {
			continue
		}
		if err := r.history.RecordFileResult(fileRecord(runID, fc, res, r.now())); err != nil {
			log.Warn().Err(err).Str("file", res.SourcePath).Msg("Failed to record file result in history")
		}
	}

	fs := summary.FolderSummary{
		FolderPath: fc.FolderPath,
		Endpoint:   fc.Endpoint.URL,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Duration:   report.Duration,
	}
	if report.Err != nil {
		fs.Error = report.Err.Error()
	}
	sb.RecordFolder(fs)
}

func (r *Runner) logPreviousRun(log zerolog.Logger) {
	prev, err := r.history.LastRun(r.configPath)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read previous run from history")
		}
		return
	}
	event := log.Info()
	if !prev.EndTime.Valid {
		// no end time: the process died mid-run
		event = log.Warn()
	}
	event.
		Str("previous_run_id", prev.RunID).
		Str("previous_status", prev.Status).
		Time("previous_start", prev.StartTime).
		Int("previous_files_failed", prev.FilesFailed).
		Msg("Previous run")
}

// logRecentFailures lists files of fc that failed in earlier runs and are about to be retried
func (r *Runner) logRecentFailures(fc config.FolderConfig, log zerolog.Logger) {
	failures, err := r.history.RecentFailures(fc.FolderPath, recentFailureLimit)
	if err != nil {
		log.Warn().Err(err).Str("folder", fc.FolderPath).Msg("Failed to read recent failures from history")
		return
	}
	for _, f := range failures {
		log.Info().
			Str("folder", fc.FolderPath).
			Str("file", f.SourcePath).
			Str("error_kind", f.ErrorKind).
			Str("error", f.ErrorMessage).
			Time("failed_at", f.FinishedAt).
			Msg("File failed in an earlier run")
	}
}

func fileRecord(runID string, fc config.FolderConfig, res dispatcher.FileResult, now time.Time) history.FileRecord {
	rec := history.FileRecord{
		RunID:         runID,
		FolderPath:    fc.FolderPath,
		SourcePath:    res.SourcePath,
		JobID:         res.JobID,
		State:         res.State.String(),
		OutputPath:    res.OutputPath,
		ProcessedPath: res.ProcessedPath,
		PollAttempts:  res.PollAttempts,
		Duration:      res.Duration,
		FinishedAt:    now,
	}
	if res.Skipped {
		rec.State = skippedState
	}
	if res.Err != nil {
		rec.ErrorKind = errorwrapper.KindOf(res.Err)
		rec.ErrorMessage = res.Err.Error()
	}
	return rec
}

func logSummary(log zerolog.Logger, s summary.RunSummary) {
	event := log.Info()
	if s.Status.IsFailure() {
		event = log.Warn()
	}
	event.
		Str("status", string(s.Status)).
		Int("folders_processed", s.FoldersProcessed).
		Int("folders_failed", s.FoldersFailed).
		Int("files_succeeded", s.FilesSucceeded).
		Int("files_failed", s.FilesFailed).
		Int("files_skipped", s.FilesSkipped).
		Dur("duration", s.Duration).
		Msg("Run finished")

	for _, msg := range s.ErrorMessages {
		log.Error().Str("status", string(s.Status)).Msg(msg)
	}
}
