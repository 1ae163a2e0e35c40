package sdk

// OperationHandle references an asynchronous job on the vendor side. It is
// taken verbatim from the Location header of an accepted request.
type OperationHandle string

type OperationStatus string

var (
	InProgressStatus OperationStatus = "InProgress"
	SucceededStatus  OperationStatus = "Succeeded"
	FailedStatus     OperationStatus = "Failed"
)

// OperationKind selects the endpoint an operation's status is read from.
type OperationKind string

var (
	PayloadOperation    OperationKind = "payload"
	SubmissionOperation OperationKind = "submission"
)

// Describe returns the human form of the kind used in progress messages.
func (k OperationKind) Describe() string {
	switch k {
	case PayloadOperation:
		return "payload processing"
	case SubmissionOperation:
		return "submission"
	default:
		return string(k)
	}
}

func (k OperationKind) Valid() bool {
	return k == PayloadOperation || k == SubmissionOperation
}

// State is a step of the submission pipeline.
type State string

var (
	IdleState              State = "idle"
	UploadingState         State = "uploading"
	PollingPayloadState    State = "polling_payload"
	DraftingState          State = "drafting"
	PollingSubmissionState State = "polling_submission"
	DoneState              State = "done"
	AbortedState           State = "aborted"
)

// Terminal reports whether no further transition can leave the state.
func (s State) Terminal() bool {
	return s == DoneState || s == AbortedState
}
