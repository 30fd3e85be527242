// Package health implements the post-launch liveness probe.
//
// The probe is deliberately a single best-effort HTTP GET: the pipeline
// sleeps a fixed delay, asks once, and reports. A retry budget above one
// attempt can be configured, in which case attempts are paced by a rate
// limiter rather than a hand-rolled backoff loop.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Status is the probe verdict.
type Status string

const (
	// Healthy means a probe got a 2xx response.
	Healthy Status = "healthy"

	// Unhealthy means every probe attempt failed: connection refused,
	// timeout, or a non-2xx status.
	Unhealthy Status = "unhealthy"
)

// Report describes the outcome of a probe run.
type Report struct {
	// Status is the verdict.
	Status Status

	// StatusCode is the HTTP status of the last response, 0 if no response
	// was received.
	StatusCode int

	// Attempts is how many requests were made.
	Attempts int

	// Detail describes the last failure, empty when healthy.
	Detail string
}

// Prober provides an abstraction for liveness probing.
type Prober interface {
	// Probe checks url and reports the verdict. Probe only returns an
	// error when the context is cancelled; an unreachable target is a
	// normal Unhealthy report.
	Probe(ctx context.Context, url string) (*Report, error)
}

// HTTPProber implements Prober with plain HTTP GETs.
type HTTPProber struct {
	client   *http.Client
	attempts int
	limiter  *rate.Limiter
}

// NewHTTPProber creates an HTTPProber. attempts is the probe budget
// (minimum 1); interval paces attempts beyond the first.
func NewHTTPProber(timeout time.Duration, attempts int, interval time.Duration) *HTTPProber {
	if attempts < 1 {
		attempts = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &HTTPProber{
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Probe checks url, retrying up to the configured budget.
func (p *HTTPProber) Probe(ctx context.Context, url string) (*Report, error) {
	report := &Report{Status: Unhealthy}

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("probe cancelled: %w", err)
		}
		report.Attempts = attempt

		code, err := p.probeOnce(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return report, fmt.Errorf("probe cancelled: %w", ctx.Err())
			}
			report.Detail = err.Error()
			continue
		}

		report.StatusCode = code
		if code >= 200 && code < 300 {
			report.Status = Healthy
			report.Detail = ""
			return report, nil
		}
		report.Detail = fmt.Sprintf("unexpected status %d", code)
	}

	return report, nil
}

func (p *HTTPProber) probeOnce(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return resp.StatusCode, nil
}

// FakeProber implements Prober with predetermined reports for testing.
type FakeProber struct {
	// Report is returned by every Probe call.
	Report *Report

	// Probed records the URLs probed, in order.
	Probed []string

	err error
}

// NewFakeProber creates a FakeProber reporting Healthy.
func NewFakeProber() *FakeProber {
	return &FakeProber{
		Report: &Report{Status: Healthy, StatusCode: 200, Attempts: 1},
	}
}

// SetUnhealthy makes the fake report Unhealthy with the given detail.
func (p *FakeProber) SetUnhealthy(detail string) {
	p.Report = &Report{Status: Unhealthy, Attempts: 1, Detail: detail}
}

// SetError sets the error returned by Probe.
func (p *FakeProber) SetError(err error) {
	p.err = err
}

// Probe records the URL and returns the predetermined report.
func (p *FakeProber) Probe(ctx context.Context, url string) (*Report, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.Probed = append(p.Probed, url)
	return p.Report, nil
}
