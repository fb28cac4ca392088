// Package health probes the facilitator's HTTP health endpoint after
// deployments and on demand.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Default probe tuning for a freshly started facilitator.
const (
	DefaultInterval = 2 * time.Second
	DefaultAttempts = 30
	DefaultTimeout  = 2 * time.Second
	DefaultBackoff  = 1.0
)

// TimeoutError reports that the endpoint never turned healthy within
// the attempt budget. It is non-fatal to install runs; callers decide
// how loudly to surface it.
type TimeoutError struct {
	URL      string
	Attempts int
	LastErr  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("health endpoint %s not ready after %d attempts", e.URL, e.Attempts)
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// IsTimeout reports whether err is a probe timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Doer is the HTTP client surface the prober needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober polls a health URL until it answers 2xx or the attempt
// budget runs out. The wait between attempts grows by the backoff
// factor; the default factor of 1 keeps a fixed interval.
type Prober struct {
	url      string
	client   Doer
	logger   ports.Logger
	interval time.Duration
	attempts int
	timeout  time.Duration
	backoff  float64

	wait func(ctx context.Context, d time.Duration) error
}

// NewProber creates a prober against the given health URL.
func NewProber(url string, logger ports.Logger) *Prober {
	return &Prober{
		url:      url,
		client:   &http.Client{},
		logger:   logger,
		interval: DefaultInterval,
		attempts: DefaultAttempts,
		timeout:  DefaultTimeout,
		backoff:  DefaultBackoff,
		wait:     sleepContext,
	}
}

// WithClient returns a copy using the given HTTP client.
func (p *Prober) WithClient(client Doer) *Prober {
	c := *p
	c.client = client
	return &c
}

// WithTuning returns a copy with custom interval, attempt count,
// per-request timeout and backoff factor. Zero values keep defaults.
func (p *Prober) WithTuning(interval time.Duration, attempts int, timeout time.Duration, backoff float64) *Prober {
	c := *p
	if interval > 0 {
		c.interval = interval
	}
	if attempts > 0 {
		c.attempts = attempts
	}
	if timeout > 0 {
		c.timeout = timeout
	}
	if backoff > 0 {
		c.backoff = backoff
	}
	return &c
}

// URL returns the probed endpoint.
func (p *Prober) URL() string {
	return p.url
}

// Check performs a single probe request. Any 2xx answer is healthy.
func (p *Prober) Check(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health endpoint answered %s", resp.Status)
	}
	return nil
}

// Wait polls until the endpoint is healthy. Exhausting the attempt
// budget yields a *TimeoutError wrapping the last probe failure.
func (p *Prober) Wait(ctx context.Context) error {
	interval := p.interval
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		err := p.Check(ctx)
		if err == nil {
			p.logger.Info(ctx, "health endpoint ready",
				ports.F("url", p.url),
				ports.F("attempt", attempt))
			return nil
		}
		lastErr = err
		p.logger.Debug(ctx, "health probe attempt failed",
			ports.F("attempt", attempt),
			ports.F("of", p.attempts),
			ports.F("error", err.Error()))

		if attempt == p.attempts {
			break
		}
		if err := p.wait(ctx, interval); err != nil {
			return err
		}
		interval = time.Duration(float64(interval) * p.backoff)
	}

	return &TimeoutError{URL: p.url, Attempts: p.attempts, LastErr: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
