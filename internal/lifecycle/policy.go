package lifecycle

import (
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
)

// Policy bounds the retries and waits of a single job
type Policy struct {
	InitialPollDelay time.Duration
	PollInterval     time.Duration
	MaxPollInterval  time.Duration
	MaxPollAttempts  int
	MaxPollErrors    int
	JobTimeout       time.Duration
	SubmitRetries    int
	SubmitBaseDelay  time.Duration
	SubmitMaxDelay   time.Duration
	OutputNaming     string
	MaxFileSize      int64
}

// PolicyFromConfig converts the lifecycle and retry sections
func PolicyFromConfig(lc config.LifecycleConfig, rc config.RetryConfig) Policy {
	return Policy{
		InitialPollDelay: lc.InitialPollDelay(),
		PollInterval:     lc.PollInterval(),
		MaxPollInterval:  lc.MaxPollInterval(),
		MaxPollAttempts:  lc.MaxPollAttempts,
		MaxPollErrors:    lc.MaxPollErrors,
		JobTimeout:       lc.JobTimeout(),
		SubmitRetries:    lc.SubmitRetries,
		SubmitBaseDelay:  rc.BaseDelay(),
		SubmitMaxDelay:   rc.MaxDelay(),
		OutputNaming:     lc.OutputNaming,
		MaxFileSize:      lc.MaxFileSize(),
	}
}

// nextPollWait honours the server hint but never polls faster than the
// configured interval nor waits longer than the cap
func (p Policy) nextPollWait(hint time.Duration) time.Duration {
	wait := p.PollInterval
	if hint > wait {
		wait = hint
	}
	if p.MaxPollInterval > 0 && wait > p.MaxPollInterval {
		wait = p.MaxPollInterval
	}
	return wait
}
