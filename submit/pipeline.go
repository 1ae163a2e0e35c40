// Package submit drives a browser-extension submission through the vendor's
// asynchronous workflow: upload, wait for processing, draft, wait for
// finalize. Every step depends on the previous one succeeding and the first
// failure aborts the run.
package submit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shono-io/edgeship/api"
	"github.com/shono-io/edgeship/auth"
	"github.com/shono-io/edgeship/notify"
	"github.com/shono-io/edgeship/poll"
	"github.com/shono-io/edgeship/sdk"
)

type (
	Config struct {
		ProductID    string
		ArtifactPath string
		NotesPath    string
	}

	Poller interface {
		UntilTerminal(ctx context.Context, kind sdk.OperationKind, handle sdk.OperationHandle) (*poll.Result, error)
	}

	// Run is the state carried across the four steps of one submission.
	Run struct {
		State               sdk.State
		PayloadOperation    sdk.OperationHandle
		SubmissionOperation sdk.OperationHandle
		LastStatus          sdk.OperationStatus
		Checks              int
		History             []sdk.State
	}

	Option func(*Pipeline)
)

func WithSink(s notify.Sink) Option {
	return func(p *Pipeline) {
		p.sink = s
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

func New(cfg Config, provider auth.Provider, client api.Client, poller Poller, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("an auth provider is required")
	}
	if client == nil {
		return nil, fmt.Errorf("an api client is required")
	}
	if poller == nil {
		return nil, fmt.Errorf("a poller is required")
	}

	p := &Pipeline{
		cfg:    cfg,
		auth:   provider,
		client: client,
		poller: poller,
		sink:   notify.Discard,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

type Pipeline struct {
	cfg    Config
	auth   auth.Provider
	client api.Client
	poller Poller
	sink   notify.Sink
	log    zerolog.Logger
}

// Run executes the whole submission. The returned Run is never nil and
// reflects how far the submission got.
func (p *Pipeline) Run(ctx context.Context) (*Run, error) {
	run := &Run{State: sdk.IdleState, History: []sdk.State{sdk.IdleState}}

	if err := p.execute(ctx, run); err != nil {
		p.transition(ctx, run, sdk.AbortedState, notify.Event{
			Message: abortMessage(err),
			Error:   err.Error(),
		})
		return run, err
	}

	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, run *Run) error {
	notes, err := p.preconditions()
	if err != nil {
		return err
	}

	if err := p.auth.Prepare(ctx); err != nil {
		return &Failure{Kind: AuthFailure, Message: "unable to obtain credentials", Err: err}
	}

	// -- 1. upload
	p.transition(ctx, run, sdk.UploadingState, notify.Event{Message: "Uploading payload..."})
	payloadOp, err := p.upload(ctx)
	if err != nil {
		return err
	}
	run.PayloadOperation = payloadOp

	// -- 2. wait for the payload to be processed
	p.transition(ctx, run, sdk.PollingPayloadState, notify.Event{Message: "Uploaded successfully.", Handle: payloadOp})
	if err := p.await(ctx, run, sdk.PayloadOperation, payloadOp, ProcessingStep); err != nil {
		return err
	}

	// -- 3. draft the submission
	p.transition(ctx, run, sdk.DraftingState, notify.Event{Message: "Drafting submission...", Status: run.LastStatus})
	submissionOp, err := p.draft(ctx, notes)
	if err != nil {
		return err
	}
	run.SubmissionOperation = submissionOp

	// -- 4. wait for the submission to finalize
	p.transition(ctx, run, sdk.PollingSubmissionState, notify.Event{Message: "Submission drafted successfully.", Handle: submissionOp})
	if err := p.await(ctx, run, sdk.SubmissionOperation, submissionOp, FinalizeStep); err != nil {
		return err
	}

	p.transition(ctx, run, sdk.DoneState, notify.Event{Message: "Submission finalized.", Handle: submissionOp, Status: run.LastStatus})
	return nil
}

// preconditions checks the local inputs before any request is made and
// returns the trimmed reviewer notes.
func (p *Pipeline) preconditions() (string, error) {
	fi, err := os.Stat(p.cfg.ArtifactPath)
	if err != nil {
		return "", &Failure{Kind: PreconditionFailure, Message: fmt.Sprintf("%s: %s", ErrMissingArtifact, p.cfg.ArtifactPath), Err: err}
	}
	if !fi.Mode().IsRegular() {
		return "", &Failure{Kind: PreconditionFailure, Message: fmt.Sprintf("artifact %s is not a regular file", p.cfg.ArtifactPath), Err: ErrMissingArtifact}
	}

	b, err := os.ReadFile(p.cfg.NotesPath)
	if err != nil {
		return "", &Failure{Kind: PreconditionFailure, Message: fmt.Sprintf("unable to read reviewer notes %s", p.cfg.NotesPath), Err: err}
	}

	return strings.TrimSpace(string(b)), nil
}

func (p *Pipeline) upload(ctx context.Context) (sdk.OperationHandle, error) {
	f, err := os.Open(p.cfg.ArtifactPath)
	if err != nil {
		return "", &Failure{Kind: PreconditionFailure, Message: "unable to open artifact", Err: err}
	}
	defer f.Close()

	resp, err := p.client.UploadPackage(ctx, f)
	if err != nil {
		return "", requestFailure(ctx, UploadStep, "unable to upload payload", err)
	}

	return accepted(resp, UploadStep, "the server failed to receive the upload")
}

func (p *Pipeline) draft(ctx context.Context, notes string) (sdk.OperationHandle, error) {
	resp, err := p.client.CreateSubmission(ctx, notes)
	if err != nil {
		return "", requestFailure(ctx, DraftStep, "unable to draft submission", err)
	}

	return accepted(resp, DraftStep, "the server failed to draft the submission")
}

func (p *Pipeline) await(ctx context.Context, run *Run, kind sdk.OperationKind, handle sdk.OperationHandle, step Step) error {
	res, err := p.poller.UntilTerminal(ctx, kind, handle)
	if err != nil {
		if pe, ok := asPollError(err); ok {
			run.LastStatus = pe.Status
			run.Checks = pe.Checks
		}
		return ClassifyPoll(step, "the operation failed or timed out on the receiving server", err)
	}

	run.LastStatus = res.Status
	run.Checks = res.Checks
	return nil
}

// accepted requires a 202 carrying an operation reference.
func accepted(resp *api.Response, step Step, message string) (sdk.OperationHandle, error) {
	if resp.StatusCode != http.StatusAccepted {
		return "", &Failure{
			Kind:    TransportFailure,
			Step:    step,
			Message: message,
			Err:     &api.StatusError{Method: http.MethodPost, StatusCode: resp.StatusCode, Body: resp.Body},
		}
	}

	handle, ok := resp.Location()
	if !ok {
		return "", &Failure{Kind: TransportFailure, Step: step, Message: message, Err: ErrMissingLocation}
	}

	return handle, nil
}

func (p *Pipeline) transition(ctx context.Context, run *Run, next sdk.State, evt notify.Event) {
	prev := run.State
	run.State = next
	run.History = append(run.History, next)

	evt.ProductID = p.cfg.ProductID
	evt.State = next
	evt.Previous = prev

	p.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("pipeline transition")
	p.sink.Notify(ctx, evt)
}

func abortMessage(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return "submission aborted"
}
