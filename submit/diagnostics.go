package submit

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/shono-io/edgeship/api"
	"github.com/shono-io/edgeship/poll"
)

func asPollError(err error) (*poll.PollError, bool) {
	var pe *poll.PollError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Diagnose attaches whatever a failure knows about the remote side to a
// log event: kind, step, check count, last status, raw body.
func Diagnose(e *zerolog.Event, err error) *zerolog.Event {
	var f *Failure
	if errors.As(err, &f) {
		e = e.Str("kind", string(f.Kind))
		if f.Step != "" {
			e = e.Str("step", string(f.Step))
		}
	}

	if pe, ok := asPollError(err); ok {
		e = e.Int("checkCount", pe.Checks).
			Str("status", string(pe.Status)).
			Str("reason", string(pe.Reason)).
			RawJSON("result", rawOrQuoted(pe.Body))
	}

	var se *api.StatusError
	if errors.As(err, &se) {
		e = e.Int("statusCode", se.StatusCode)
		if len(se.Body) > 0 {
			e = e.Str("body", string(se.Body))
		}
	}

	return e.Err(err)
}

// rawOrQuoted returns b if it is a JSON document, else a JSON string of it.
func rawOrQuoted(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	if json.Valid(b) {
		return b
	}
	q, _ := json.Marshal(string(b))
	return q
}
