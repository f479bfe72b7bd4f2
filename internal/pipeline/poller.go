// Package pipeline owns the generation job lifecycle: the polling state
// machine that drives a provider task to a terminal outcome, and the
// persistence step that turns transient provider assets into durable
// records.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/config"
	"github.com/songforge/api/internal/model"
)

// ErrCancelled ends polling when the job was cancelled locally. The
// provider may still finish the task with no further observer.
var ErrCancelled = errors.New("polling cancelled")

// StatusFetcher is the single provider operation the poller needs
type StatusFetcher interface {
	GetGenerationStatus(ctx context.Context, taskID string) (*client.GenerationStatus, error)
}

// Poller runs the status polling loop for one task. It is the only
// writer of the job's status; observers are notified through OnPoll.
type Poller struct {
	Provider      StatusFetcher
	Interval      time.Duration // delay between ordinary polls
	RetryInterval time.Duration // longer delay after a transient error
	MaxAttempts   int

	// Sleep is injectable so tests can run without real delays
	Sleep func(ctx context.Context, d time.Duration) error

	// OnPoll observes each lifecycle transition (job record, websocket)
	OnPoll func(status model.JobStatus, attempt int)

	// Cancelled is checked before each poll for local cooperative cancel
	Cancelled func(ctx context.Context) bool
}

// NewPoller builds a poller with the configured timing and the default
// context-aware sleep.
func NewPoller(provider StatusFetcher, cfg *config.PollConfig) *Poller {
	return &Poller{
		Provider:      provider,
		Interval:      time.Duration(cfg.IntervalSeconds) * time.Second,
		RetryInterval: time.Duration(cfg.RetrySeconds) * time.Second,
		MaxAttempts:   cfg.MaxAttempts,
		Sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Run polls until the task is result-bearing, fails, or the attempt
// budget runs out. A network-level error is never job failure: it only
// stretches the delay before the next poll. SUCCESS with zero tracks is
// provider lag and keeps polling within the same budget.
func (p *Poller) Run(ctx context.Context, taskID string) (*client.GenerationStatus, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if p.Cancelled != nil && p.Cancelled(ctx) {
			log.Printf("[Poller] task=%s cancelled locally after %d attempts", taskID, attempt-1)
			return nil, ErrCancelled
		}

		st, err := p.Provider.GetGenerationStatus(ctx, taskID)
		if err != nil {
			if e, ok := apperr.As(err); ok && e.Kind == apperr.KindProvider {
				// Credential and billing errors will not heal by waiting
				if e.Code == apperr.CodeUnauthorized || e.Code == apperr.CodeInsufficientCredits {
					return nil, err
				}
			}
			log.Printf("[Poller] task=%s poll #%d error, retrying: %v", taskID, attempt, err)
			if serr := sleep(ctx, p.RetryInterval); serr != nil {
				return nil, serr
			}
			continue
		}

		switch {
		case st.Status == client.StatusFailed:
			msg := st.ErrorMessage
			if msg == "" {
				msg = "generation failed"
			}
			log.Printf("[Poller] task=%s failed: %s", taskID, msg)
			p.notify(model.JobStatusFailed, attempt)
			return nil, apperr.Provider(0, msg)

		case st.Status == client.StatusSuccess && len(st.Songs) > 0:
			log.Printf("[Poller] task=%s ready with %d track(s) after %d attempts", taskID, len(st.Songs), attempt)
			p.notify(model.JobStatusReady, attempt)
			return st, nil

		case st.Status == client.StatusSuccess:
			// Success reported before the track list is visible
			log.Printf("[Poller] task=%s success with no tracks yet, continuing", taskID)
			p.notify(model.JobStatusPolling, attempt)

		case st.Status == client.StatusTextReady || st.Status == client.StatusFirstReady:
			p.notify(model.JobStatusPartial, attempt)

		default:
			p.notify(model.JobStatusPolling, attempt)
		}

		if serr := sleep(ctx, p.Interval); serr != nil {
			return nil, serr
		}
	}

	p.notify(model.JobStatusTimedOut, p.MaxAttempts)
	return nil, apperr.Timeout("generation did not finish within the attempt budget")
}

func (p *Poller) notify(status model.JobStatus, attempt int) {
	if p.OnPoll != nil {
		p.OnPoll(status, attempt)
	}
}
