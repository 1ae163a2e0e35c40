// Package poll waits for vendor-side asynchronous operations to finish.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/shono-io/edgeship/api"
	"github.com/shono-io/edgeship/sdk"
)

type (
	// Checker reads the current status of an operation once.
	Checker interface {
		OperationStatus(ctx context.Context, kind sdk.OperationKind, handle sdk.OperationHandle) (*api.OperationResult, error)
	}

	// Sleeper suspends for d or until ctx is done.
	Sleeper func(ctx context.Context, d time.Duration) error

	Result struct {
		Kind   sdk.OperationKind
		Handle sdk.OperationHandle
		Checks int
		Status sdk.OperationStatus
		Body   []byte
	}

	Option func(*Poller)
)

func WithSleeper(s Sleeper) Option {
	return func(p *Poller) {
		p.sleep = s
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) {
		p.log = l
	}
}

func NewPoller(checker Checker, cfg Config, opts ...Option) (*Poller, error) {
	if checker == nil {
		return nil, fmt.Errorf("a status checker is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Poller{
		checker: checker,
		cfg:     cfg,
		sleep:   Sleep,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

type Poller struct {
	checker Checker
	cfg     Config
	sleep   Sleeper
	log     zerolog.Logger
}

func (p *Poller) Config() Config {
	return p.cfg
}

// UntilTerminal checks the operation until it leaves InProgress or the cap
// is used up. A non-success outcome is a *PollError; a failing check is
// returned as is and never retried here.
func (p *Poller) UntilTerminal(ctx context.Context, kind sdk.OperationKind, handle sdk.OperationHandle) (*Result, error) {
	sched := p.cfg.Schedule()
	log := p.log.With().Str("kind", string(kind)).Str("operation", string(handle)).Logger()

	result := &Result{Kind: kind, Handle: handle, Status: sdk.InProgressStatus}
	for result.Status == sdk.InProgressStatus {
		wait := sched.NextBackOff()
		if wait == backoff.Stop {
			break
		}

		if wait > 0 {
			log.Info().Msgf("Awaiting result. Next check in %s...", wait)
			if err := p.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		log.Info().Msgf("Checking %s status...", kind.Describe())
		res, err := p.checker.OperationStatus(ctx, kind, handle)
		result.Checks++
		if err != nil {
			return nil, fmt.Errorf("unable to check %s operation %s: %w", kind.Describe(), handle, err)
		}

		result.Status = res.Status
		result.Body = res.Body
		log.Debug().Int("check", result.Checks).Str("status", string(res.Status)).Msg("operation status received")
	}

	if p.cfg.succeeded(result.Status) {
		log.Info().Int("checks", result.Checks).Msg("Operation succeeded.")
		return result, nil
	}

	reason := TerminalReason
	if result.Status == sdk.InProgressStatus {
		reason = ExhaustedReason
	}

	return nil, &PollError{
		Kind:   kind,
		Handle: handle,
		Reason: reason,
		Checks: result.Checks,
		Status: result.Status,
		Body:   result.Body,
	}
}

// Sleep waits on the wall clock.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
