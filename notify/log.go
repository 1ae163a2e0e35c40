package notify

import (
	"context"

	"github.com/rs/zerolog"
)

func NewLogSink(logger zerolog.Logger) Sink {
	return &logSink{log: logger}
}

type logSink struct {
	log zerolog.Logger
}

func (l *logSink) Notify(_ context.Context, evt Event) {
	e := l.log.Info()
	if evt.Error != "" {
		e = l.log.Error().Str("error", evt.Error)
	}

	e = e.Str("state", string(evt.State))
	if evt.Handle != "" {
		e = e.Str("operation", string(evt.Handle))
	}
	if evt.Status != "" {
		e = e.Str("status", string(evt.Status))
	}

	e.Msg(evt.Message)
}
