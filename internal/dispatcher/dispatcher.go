package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/batchprocessor"
	"github.com/aleister1102/apifileprocessor/internal/common/errorwrapper"
	"github.com/aleister1102/apifileprocessor/internal/common/filemanager"
	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/jobclient"
	"github.com/aleister1102/apifileprocessor/internal/lifecycle"
	"github.com/rs/zerolog"
)

// TaskRunner drives a single file through its job
type TaskRunner interface {
	Run(ctx context.Context, task *lifecycle.FileTask) lifecycle.Outcome
}

// Dispatcher processes the files of one folder at a time
type Dispatcher struct {
	runner        TaskRunner
	files         *filemanager.FileManager
	maxConcurrent int
	logger        zerolog.Logger
}

// NewDispatcher creates a dispatcher running at most maxConcurrent files of a folder at once
func NewDispatcher(runner TaskRunner, files *filemanager.FileManager, maxConcurrent int, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		runner:        runner,
		files:         files,
		maxConcurrent: maxConcurrent,
		logger:        logger.With().Str("component", "Dispatcher").Logger(),
	}
}

// ProcessFolder lists the eligible files of fc and runs each through its
// lifecycle. Successful sources are moved to the processed subfolder, failed
// ones stay in place. One file's failure never stops the others; only
// folder-level errors (see FolderReport.Err) abort the remaining files.
func (d *Dispatcher) ProcessFolder(ctx context.Context, fc config.FolderConfig) (report FolderReport) {
	report = FolderReport{Folder: fc, StartTime: time.Now()}
	log := d.logger.With().Str("folder", fc.FolderPath).Str("endpoint", fc.Endpoint.URL).Logger()
	defer func() {
		report.Duration = time.Since(report.StartTime)
	}()

	if err := config.CheckFolder(fc); err != nil {
		report.Err = err
		log.Error().Err(err).Str("error_kind", errorwrapper.KindOf(err)).Msg("Skipping folder")
		return report
	}

	processedDir := fc.ProcessedFolder()
	files, err := d.files.ListFiles(fc.FolderPath, filemanager.ListOptions{
		Recursive: fc.Recursive,
		SkipDirs:  []string{processedDir, fc.OutputFolder},
	})
	if err != nil {
		report.Err = err
		log.Error().Err(err).Str("error_kind", errorwrapper.KindOf(err)).Msg("Cannot list folder")
		return report
	}
	if len(files) == 0 {
		log.Info().Msg("No files to process")
		return report
	}
	log.Info().Int("files", len(files)).Msg("Processing folder")

	folderCtx, abort := context.WithCancel(ctx)
	defer abort()

	var abortOnce sync.Once
	var abortErr error
	abortFolder := func(err error) {
		abortOnce.Do(func() {
			abortErr = err
			abort()
			log.Error().Err(err).Str("error_kind", errorwrapper.KindOf(err)).Msg("Aborting remaining files of folder")
		})
	}

	results := make([]FileResult, len(files))
	started := make([]bool, len(files))

	pool := batchprocessor.NewBatchProcessor(batchprocessor.BatchProcessorConfig{MaxConcurrent: d.maxConcurrent}, d.logger)
	stats, _ := pool.ProcessAll(folderCtx, len(files), func(ctx context.Context, i int) error {
		started[i] = true
		result := d.processFile(ctx, fc, files[i], processedDir, log)
		results[i] = result

		var authErr *jobclient.AuthError
		var rateErr *jobclient.RateLimitError
		var ioErr *filemanager.IOError
		switch {
		case errors.As(result.Err, &authErr):
			abortFolder(result.Err)
		case errors.As(result.Err, &rateErr):
			// The limit is per account, so the remaining files would be refused too
			abortFolder(result.Err)
		case errors.As(result.Err, &ioErr) && ioErr.FolderLevel:
			abortFolder(result.Err)
		}
		return result.Err
	})

	skipReason := abortErr
	if skipReason == nil {
		skipReason = ctx.Err()
	}
	for i := range results {
		switch {
		case !started[i]:
			results[i] = FileResult{
				Outcome: lifecycle.Outcome{SourcePath: files[i], State: lifecycle.StateCreated, Err: skipReason},
				Skipped: true,
			}
			report.Skipped++
		case results[i].Succeeded():
			report.Succeeded++
		default:
			report.Failed++
		}
	}
	report.Files = results
	report.Err = abortErr

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Int("not_started", stats.NotStarted()).
		Dur("batch_duration", stats.Duration).
		Msg("Folder processed")
	return report
}

func (d *Dispatcher) processFile(ctx context.Context, fc config.FolderConfig, path, processedDir string, log zerolog.Logger) FileResult {
	task := lifecycle.NewFileTask(path, fc)
	result := FileResult{Outcome: d.runner.Run(ctx, task)}
	if !result.Outcome.Succeeded() {
		return result
	}

	moved, err := d.files.MoveFile(path, processedDir)
	if err != nil {
		// The result is already written; the source stays and is picked up again next run
		result.Err = err
		log.Error().
			Err(err).
			Str("file", task.Name()).
			Str("job_id", result.JobID).
			Str("error_kind", errorwrapper.KindOf(err)).
			Msg("Failed to move processed file")
		return result
	}
	result.ProcessedPath = moved
	log.Info().Str("file", task.Name()).Str("moved_to", moved).Msg("Successfully processed file")
	return result
}
