package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/errorwrapper"
	"github.com/aleister1102/apifileprocessor/internal/httpclient"
	"github.com/aleister1102/apifileprocessor/internal/jobclient"
	"github.com/rs/zerolog"
)

// FileStore is the filesystem access a job needs
type FileStore interface {
	ReadFile(path string, maxSize int64) ([]byte, error)
	WriteFileAtomic(dir, name string, data []byte) (string, error)
}

// Runner drives FileTasks from Created to Done or Failed
type Runner struct {
	api    jobclient.API
	files  FileStore
	policy Policy
	logger zerolog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a lifecycle runner
func NewRunner(api jobclient.API, files FileStore, policy Policy, logger zerolog.Logger) *Runner {
	if policy.MaxPollAttempts <= 0 {
		policy.MaxPollAttempts = 1
	}
	if policy.MaxPollErrors <= 0 {
		policy.MaxPollErrors = 1
	}
	return &Runner{
		api:    api,
		files:  files,
		policy: policy,
		logger: logger.With().Str("component", "JobLifecycle").Logger(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Run processes one task to a terminal state. It never panics on remote
// failures and always returns an Outcome; the result file exists in the
// output folder if and only if the outcome is Done.
func (r *Runner) Run(ctx context.Context, task *FileTask) Outcome {
	start := r.now()
	log := r.logger.With().
		Str("file", task.Name()).
		Str("folder", task.Folder.FolderPath).
		Str("endpoint", task.Folder.Endpoint.URL).
		Logger()

	jobCtx := ctx
	if r.policy.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, r.policy.JobTimeout)
		defer cancel()
	}

	outcome := Outcome{SourcePath: task.SourcePath}
	fail := func(err error) Outcome {
		err = r.classify(ctx, jobCtx, task, outcome.PollAttempts, start, err)
		if tErr := task.moveTo(StateFailed); tErr != nil {
			log.Error().Err(tErr).Msg("Invalid lifecycle transition")
		}
		outcome.State = StateFailed
		outcome.JobID = task.JobID
		outcome.Err = err
		outcome.Duration = r.now().Sub(start)
		log.Error().
			Err(err).
			Str("error_kind", errorwrapper.KindOf(err)).
			Str("job_id", task.JobID).
			Msg("File processing failed")
		return outcome
	}

	data, err := r.files.ReadFile(task.SourcePath, r.policy.MaxFileSize)
	if err != nil {
		return fail(err)
	}

	log.Info().Msg("Processing file")
	ref, err := r.submit(jobCtx, task, data, log)
	if err != nil {
		return fail(err)
	}
	task.JobID = ref.JobID
	if err := task.moveTo(StateSubmitted); err != nil {
		return fail(err)
	}
	log = log.With().Str("job_id", ref.JobID).Logger()
	log.Debug().Msg("Job submitted")

	if err := task.moveTo(StatePolling); err != nil {
		return fail(err)
	}
	result, attempts, err := r.poll(jobCtx, task, ref, log)
	outcome.PollAttempts = attempts
	if err != nil {
		return fail(err)
	}

	fetched, err := r.api.Fetch(jobCtx, ref, result)
	if err != nil {
		return fail(err)
	}
	// Nothing is written once the run is shutting down
	if err := jobCtx.Err(); err != nil {
		return fail(err)
	}

	name := OutputName(r.policy.OutputNaming, task.Name(), ref.JobID, fetched.FileName, r.now())
	path, err := r.files.WriteFileAtomic(task.Folder.OutputFolder, name, fetched.Data)
	if err != nil {
		return fail(err)
	}

	if err := task.moveTo(StateDone); err != nil {
		return fail(err)
	}
	outcome.State = StateDone
	outcome.JobID = ref.JobID
	outcome.OutputPath = path
	outcome.Duration = r.now().Sub(start)

	log.Info().
		Str("output", path).
		Int("poll_attempts", attempts).
		Dur("duration", outcome.Duration).
		Msg("File processed")
	return outcome
}

func (r *Runner) submit(ctx context.Context, task *FileTask, data []byte, log zerolog.Logger) (jobclient.JobRef, error) {
	upload := jobclient.FileUpload{Name: task.Name(), Data: data}
	endpoint := jobclient.EndpointFromConfig(task.Folder.Endpoint)

	for attempt := 0; ; attempt++ {
		ref, err := r.api.Submit(ctx, upload, endpoint)
		if err == nil {
			return ref, nil
		}
		if ctx.Err() != nil || !isTransient(err) || attempt >= r.policy.SubmitRetries {
			return jobclient.JobRef{}, err
		}

		delay := httpclient.Backoff(r.policy.SubmitBaseDelay, r.policy.SubmitMaxDelay, attempt, true)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", r.policy.SubmitRetries).
			Dur("delay", delay).
			Msg("Submission failed, retrying")
		if err := r.sleep(ctx, delay); err != nil {
			return jobclient.JobRef{}, err
		}
	}
}

func (r *Runner) poll(ctx context.Context, task *FileTask, ref jobclient.JobRef, log zerolog.Logger) (jobclient.PollResult, int, error) {
	if err := r.sleep(ctx, r.policy.InitialPollDelay); err != nil {
		return jobclient.PollResult{}, 0, err
	}

	consecutiveErrors := 0
	attempt := 0
	for attempt < r.policy.MaxPollAttempts {
		attempt++
		if err := task.moveTo(StatePolling); err != nil {
			return jobclient.PollResult{}, attempt, err
		}

		var wait time.Duration
		result, err := r.api.Poll(ctx, ref)
		if err != nil {
			if ctx.Err() != nil || isFatal(err) {
				return jobclient.PollResult{}, attempt, err
			}
			consecutiveErrors++
			if consecutiveErrors >= r.policy.MaxPollErrors {
				return jobclient.PollResult{}, attempt, err
			}
			wait = httpclient.Backoff(r.policy.PollInterval, r.policy.MaxPollInterval, consecutiveErrors, false)
			log.Warn().Err(err).Int("attempt", attempt).Dur("delay", wait).Msg("Status check failed, retrying")
		} else {
			consecutiveErrors = 0
			switch result.Status {
			case jobclient.StatusDone:
				return result, attempt, nil
			case jobclient.StatusFailed:
				return result, attempt, &JobFailedError{JobID: ref.JobID, RemoteStatus: result.RemoteStatus, Message: result.Message}
			}
			wait = r.policy.nextPollWait(result.WaitHint)
			log.Debug().Str("remote_status", result.RemoteStatus).Int("attempt", attempt).Dur("next_check", wait).Msg("Job still pending")
		}

		if attempt >= r.policy.MaxPollAttempts {
			break
		}
		if err := r.sleep(ctx, wait); err != nil {
			return jobclient.PollResult{}, attempt, err
		}
	}

	return jobclient.PollResult{}, attempt, &TimeoutError{JobID: ref.JobID, Attempts: attempt}
}

// classify turns context errors into their lifecycle meaning: a cancelled run
// keeps the context error, an expired job deadline becomes a TimeoutError.
func (r *Runner) classify(parent, jobCtx context.Context, task *FileTask, attempts int, start time.Time, err error) error {
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		timeoutErr.Elapsed = r.now().Sub(start)
		return err
	}
	if parentErr := parent.Err(); parentErr != nil {
		return parentErr
	}
	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{JobID: task.JobID, Attempts: attempts, Elapsed: r.now().Sub(start), Err: err}
	}
	return err
}

func isTransient(err error) bool {
	var subErr *jobclient.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Transient()
	}
	var rateErr *jobclient.RateLimitError
	return errors.As(err, &rateErr)
}

func isFatal(err error) bool {
	var authErr *jobclient.AuthError
	return errors.As(err, &authErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
