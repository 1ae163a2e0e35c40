package poll

import (
	"fmt"

	"github.com/shono-io/edgeship/sdk"
)

type Reason string

const (
	// TerminalReason means the operation ended with a non-success status.
	TerminalReason Reason = "terminal"
	// ExhaustedReason means the check cap ran out while still in progress.
	ExhaustedReason Reason = "exhausted"
)

// PollError reports an operation that did not succeed. It carries the
// last raw result for diagnostics.
type PollError struct {
	Kind   sdk.OperationKind
	Handle sdk.OperationHandle
	Reason Reason
	Checks int
	Status sdk.OperationStatus
	Body   []byte
}

func (e *PollError) Error() string {
	switch e.Reason {
	case ExhaustedReason:
		return fmt.Sprintf("%s operation %s still %s after %d checks", e.Kind.Describe(), e.Handle, e.Status, e.Checks)
	default:
		return fmt.Sprintf("%s operation %s ended with status %q after %d checks", e.Kind.Describe(), e.Handle, e.Status, e.Checks)
	}
}
