package pkg

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/shono-io/edgeship/api"
	"github.com/shono-io/edgeship/auth"
	"github.com/shono-io/edgeship/notify"
	"github.com/shono-io/edgeship/poll"
	"github.com/shono-io/edgeship/sdk"
	"github.com/shono-io/edgeship/submit"
)

const serviceName = "edgeship"

type RunnerOption func(*Runner)

// WithHTTPClient replaces the client used for the vendor API and the token
// exchange.
func WithHTTPClient(hc *http.Client) RunnerOption {
	return func(r *Runner) {
		r.hc = hc
	}
}

func WithSleeper(s poll.Sleeper) RunnerOption {
	return func(r *Runner) {
		r.sleep = s
	}
}

func WithSink(s notify.Sink) RunnerOption {
	return func(r *Runner) {
		r.extra = s
	}
}

// NewRunner wires a submission from configuration. Close releases the
// optional NATS connection.
func NewRunner(cfg Config, logger zerolog.Logger, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{cfg: cfg, log: logger}
	for _, opt := range opts {
		opt(r)
	}

	r.log.Debug().Str("mode", string(cfg.Auth.Mode)).Msg("initializing credentials")
	provider, err := auth.New(cfg.Auth, r.hc)
	if err != nil {
		return nil, fmt.Errorf("unable to create auth provider: %w", err)
	}
	r.provider = provider

	apiCfg := cfg.API
	if r.hc != nil {
		apiCfg.HTTPClient = r.hc
	}
	client, err := api.NewHTTPClient(apiCfg, provider, r.log.With().Str("component", "api").Logger())
	if err != nil {
		return nil, fmt.Errorf("unable to create api client: %w", err)
	}
	r.client = client

	popts := []poll.Option{poll.WithLogger(r.log.With().Str("component", "poll").Logger())}
	if r.sleep != nil {
		popts = append(popts, poll.WithSleeper(r.sleep))
	}
	poller, err := poll.NewPoller(client, cfg.Poll, popts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create poller: %w", err)
	}
	r.poller = poller

	sinks := []notify.Sink{notify.NewLogSink(r.log.With().Str("component", "progress").Logger()), r.extra}
	if cfg.Notify.Nats.Url != "" {
		r.log.Debug().Str("url", cfg.Notify.Nats.Url).Msg("connecting to nats for progress events")
		nc, err := notify.Connect(serviceName, cfg.Notify.Nats)
		if err != nil {
			return nil, err
		}
		r.nc = nc
		sinks = append(sinks, notify.NewNatsSink(nc, cfg.Notify.Nats.SubjectPrefix, r.log))
	}
	r.sink = notify.Multi(sinks...)

	return r, nil
}

type Runner struct {
	cfg   Config
	log   zerolog.Logger
	hc    *http.Client
	sleep poll.Sleeper
	extra notify.Sink

	provider auth.Provider
	client   api.Client
	poller   *poll.Poller
	sink     notify.Sink
	nc       *nats.Conn
}

// Submit runs the whole upload, process, draft, finalize sequence.
func (r *Runner) Submit(ctx context.Context) (*submit.Run, error) {
	r.log.Info().
		Str("product", r.cfg.API.ProductID).
		Str("artifact", r.cfg.Artifact.Path).
		Int("max_checks", r.cfg.Poll.Checks()).
		Dur("worst_wait", r.cfg.Worst()).
		Msg("starting submission")

	p, err := submit.New(submit.Config{
		ProductID:    r.cfg.API.ProductID,
		ArtifactPath: r.cfg.Artifact.Path,
		NotesPath:    r.cfg.Artifact.Notes,
	}, r.provider, r.client, r.poller, submit.WithSink(r.sink), submit.WithLogger(r.log))
	if err != nil {
		return nil, err
	}

	return p.Run(ctx)
}

// Await polls an operation started by an earlier, interrupted run.
func (r *Runner) Await(ctx context.Context, kind sdk.OperationKind, handle sdk.OperationHandle) (*poll.Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", api.ErrUnknownKind, kind)
	}

	if err := r.provider.Prepare(ctx); err != nil {
		return nil, &submit.Failure{Kind: submit.AuthFailure, Message: "unable to obtain credentials", Err: err}
	}

	res, err := r.poller.UntilTerminal(ctx, kind, handle)
	if err != nil {
		return nil, submit.ClassifyPoll("", "the operation failed or timed out on the receiving server", err)
	}

	return res, nil
}

func (r *Runner) Close() {
	if r.nc == nil {
		return
	}
	if err := r.nc.Drain(); err != nil {
		r.log.Warn().Err(err).Msg("unable to drain nats connection")
	}
}
