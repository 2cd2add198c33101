package httpclient

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/errorwrapper"
	"github.com/rs/zerolog"
)

// RetryHandler handles HTTP request retries with exponential backoff
type RetryHandler struct {
	maxRetries       int
	baseDelay        time.Duration
	maxDelay         time.Duration
	enableJitter     bool
	retryStatusCodes map[int]bool
	logger           zerolog.Logger
}

// RetryHandlerConfig configuration for retry handler
type RetryHandlerConfig struct {
	MaxRetries       int           `json:"max_retries"`
	BaseDelay        time.Duration `json:"base_delay"`
	MaxDelay         time.Duration `json:"max_delay"`
	EnableJitter     bool          `json:"enable_jitter"`
	RetryStatusCodes []int         `json:"retry_status_codes"`
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(config RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	statusCodeMap := make(map[int]bool)
	for _, code := range config.RetryStatusCodes {
		statusCodeMap[code] = true
	}

	return &RetryHandler{
		maxRetries:       config.MaxRetries,
		baseDelay:        config.BaseDelay,
		maxDelay:         config.MaxDelay,
		enableJitter:     config.EnableJitter,
		retryStatusCodes: statusCodeMap,
		logger:           logger.With().Str("component", "RetryHandler").Logger(),
	}
}

// ShouldRetry determines if a request should be retried based on status code
func (rh *RetryHandler) ShouldRetry(statusCode int, attempt int) bool {
	if attempt >= rh.maxRetries {
		return false
	}
	return rh.retryStatusCodes[statusCode]
}

// CalculateDelay calculates the delay for the next retry attempt using exponential backoff
func (rh *RetryHandler) CalculateDelay(attempt int) time.Duration {
	return Backoff(rh.baseDelay, rh.maxDelay, attempt, rh.enableJitter)
}

// Backoff returns base*2^attempt capped at max, plus up to 10% jitter when enabled.
func Backoff(base, max time.Duration, attempt int, jitter bool) time.Duration {
	delay := base
	if attempt > 0 {
		delay = base * time.Duration(math.Pow(2, float64(attempt)))
	}
	if max > 0 && (delay > max || delay <= 0) {
		delay = max
	}

	if jitter {
		if spread := int64(delay / 10); spread > 0 {
			delay += time.Duration(rand.Int63n(spread))
		}
	}
	return delay
}

// WaitForRetry waits for the calculated delay, or the server's Retry-After when it is shorter than maxDelay
func (rh *RetryHandler) WaitForRetry(ctx context.Context, attempt int, resp *HTTPResponse, url string) error {
	delay := rh.CalculateDelay(attempt)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
		if ra, ok := retryAfter(resp); ok && (rh.maxDelay <= 0 || ra <= rh.maxDelay) {
			delay = ra
		}
	}

	rh.logger.Warn().
		Str("url", url).
		Int("status_code", statusCode).
		Int("attempt", attempt+1).
		Int("max_retries", rh.maxRetries).
		Dur("delay", delay).
		Msg("Request failed, waiting before retry")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoWithRetry executes an HTTP request with retry logic. Network errors and
// the configured status codes are retried; a cancelled context never is.
func (rh *RetryHandler) DoWithRetry(ctx context.Context, doFunc func(*HTTPRequest) (*HTTPResponse, error), req *HTTPRequest) (*HTTPResponse, error) {
	var lastResp *HTTPResponse
	var lastErr error

	for attempt := 0; attempt <= rh.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := doFunc(req)
		if err != nil {
			lastErr = err
			lastResp = nil

			if ctx.Err() != nil || !isRetryableError(err) || attempt == rh.maxRetries {
				break
			}
			if waitErr := rh.WaitForRetry(ctx, attempt, nil, req.URL); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		lastResp = resp
		lastErr = nil

		if rh.ShouldRetry(resp.StatusCode, attempt) {
			if err := rh.WaitForRetry(ctx, attempt, resp, req.URL); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if lastErr != nil {
		return nil, errorwrapper.WrapError(lastErr, "all retry attempts failed")
	}

	// Retries exhausted on a retryable status: hand back both the response and an error
	if lastResp != nil && rh.retryStatusCodes[lastResp.StatusCode] {
		err := errorwrapper.NewHTTPErrorWithURL(lastResp.StatusCode, truncate(lastResp.Body, 512), req.URL)
		return lastResp, errorwrapper.WrapError(err, "all retry attempts failed")
	}

	return lastResp, nil
}

// isRetryableError reports transport failures. Cancellation is detected on the
// caller's context, so a client timeout is still retried.
func isRetryableError(err error) bool {
	var netErr *errorwrapper.NetworkError
	return errors.As(err, &netErr)
}

func retryAfter(resp *HTTPResponse) (time.Duration, bool) {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0, false
	}
	secs, err := strconv.Atoi(resp.Header("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n])
	}
	return string(body)
}
