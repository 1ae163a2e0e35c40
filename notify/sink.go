// Package notify reports submission progress. Sinks are observational only:
// nothing they receive is ever read back by the pipeline.
package notify

import (
	"context"
	"time"

	"github.com/shono-io/edgeship/sdk"
)

type (
	Sink interface {
		Notify(ctx context.Context, evt Event)
	}

	Event struct {
		Timestamp int64               `json:"timestamp"`
		ProductID string              `json:"product_id"`
		State     sdk.State           `json:"state"`
		Previous  sdk.State           `json:"previous,omitempty"`
		Handle    sdk.OperationHandle `json:"operation,omitempty"`
		Status    sdk.OperationStatus `json:"status,omitempty"`
		Message   string              `json:"message"`
		Error     string              `json:"error,omitempty"`
	}

	multi []Sink

	// SinkFunc adapts a function to a Sink.
	SinkFunc func(ctx context.Context, evt Event)
)

func (f SinkFunc) Notify(ctx context.Context, evt Event) {
	f(ctx, evt)
}

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Notify(ctx context.Context, evt Event) {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}
	for _, s := range m {
		s.Notify(ctx, evt)
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})
