package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/shono-io/edgeship/poll"
)

// Kind classifies why a run aborted.
type Kind string

const (
	PreconditionFailure Kind = "PRECONDITION"
	TransportFailure    Kind = "TRANSPORT"
	PollFailure         Kind = "POLL"
	AuthFailure         Kind = "AUTH"
	CancelledFailure    Kind = "CANCELLED"
)

// Step is the remote step a failure happened in. Preconditions and auth
// failures carry no step.
type Step string

const (
	UploadStep     Step = "upload"
	ProcessingStep Step = "processing"
	DraftStep      Step = "draft"
	FinalizeStep   Step = "finalize"
)

var (
	ErrMissingArtifact = errors.New("built file not present for upload")
	ErrMissingLocation = errors.New("accepted response carried no Location header")
)

// Match targets for errors.Is. A target without a step matches on kind only.
var (
	ErrPrecondition = &Failure{Kind: PreconditionFailure}
	ErrTransport    = &Failure{Kind: TransportFailure}
	ErrPoll         = &Failure{Kind: PollFailure}
	ErrAuth         = &Failure{Kind: AuthFailure}
	ErrCancelled    = &Failure{Kind: CancelledFailure}

	ErrUpload     = &Failure{Kind: TransportFailure, Step: UploadStep}
	ErrProcessing = &Failure{Kind: PollFailure, Step: ProcessingStep}
	ErrDraft      = &Failure{Kind: TransportFailure, Step: DraftStep}
	ErrFinalize   = &Failure{Kind: PollFailure, Step: FinalizeStep}
)

// Failure is the single error type a run aborts with.
type Failure struct {
	Kind    Kind
	Step    Step
	Message string
	Err     error
}

func (f *Failure) Error() string {
	prefix := fmt.Sprintf("[%s]", f.Kind)
	if f.Step != "" {
		prefix = fmt.Sprintf("[%s] %s", f.Kind, f.Step)
	}

	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	var t *Failure
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != f.Kind {
		return false
	}
	return t.Step == "" || t.Step == f.Step
}

// ClassifyPoll turns an error coming out of the poller into a Failure.
func ClassifyPoll(step Step, message string, err error) *Failure {
	var pe *poll.PollError
	switch {
	case errors.As(err, &pe):
		return &Failure{Kind: PollFailure, Step: step, Message: message, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: CancelledFailure, Step: step, Message: "interrupted while waiting", Err: err}
	default:
		return &Failure{Kind: TransportFailure, Step: step, Message: "unable to check operation status", Err: err}
	}
}

func requestFailure(ctx context.Context, step Step, message string, err error) *Failure {
	if ctx.Err() != nil {
		return &Failure{Kind: CancelledFailure, Step: step, Message: "interrupted during request", Err: err}
	}
	return &Failure{Kind: TransportFailure, Step: step, Message: message, Err: err}
}

// ExitCode maps an error returned by a run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrPrecondition):
		return 2
	case errors.Is(err, ErrAuth):
		return 3
	case errors.Is(err, ErrTransport):
		return 4
	case errors.Is(err, ErrPoll):
		return 5
	case errors.Is(err, ErrCancelled):
		return 130
	default:
		return 1
	}
}
