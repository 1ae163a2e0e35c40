package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shono-io/edgeship/sdk"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.msgs = append(f.msgs, published{subj, data})
	return f.err
}

func TestNatsSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNatsSink(pub, "shono.", zerolog.Nop())

	sink.Notify(context.Background(), Event{
		ProductID: "prod-1",
		State:     sdk.PollingPayloadState,
		Previous:  sdk.UploadingState,
		Handle:    "op-1",
		Message:   "Uploaded successfully.",
	})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "shono.submission.polling_payload", pub.msgs[0].subject)

	var evt Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &evt))
	assert.Equal(t, sdk.PollingPayloadState, evt.State)
	assert.Equal(t, sdk.UploadingState, evt.Previous)
	assert.Equal(t, sdk.OperationHandle("op-1"), evt.Handle)
}

func TestNatsSink_DefaultPrefixAndPublishFailure(t *testing.T) {
	var buf bytes.Buffer
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	sink := NewNatsSink(pub, "", zerolog.New(&buf))

	assert.NotPanics(t, func() {
		sink.Notify(context.Background(), Event{State: sdk.DoneState})
	})
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "edgeship.submission.done", pub.msgs[0].subject)
	assert.Contains(t, buf.String(), "unable to publish progress event")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	sink.Notify(context.Background(), Event{State: sdk.UploadingState, Message: "Uploading payload..."})
	sink.Notify(context.Background(), Event{State: sdk.AbortedState, Message: "aborted", Error: "boom", Status: sdk.FailedStatus})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "Uploading payload...", first["message"])
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "Failed", second["status"])
}

func TestMulti(t *testing.T) {
	var got []Event
	rec := SinkFunc(func(_ context.Context, evt Event) { got = append(got, evt) })

	sink := Multi(rec, nil, Discard, rec)
	sink.Notify(context.Background(), Event{State: sdk.DoneState})

	require.Len(t, got, 2)
	assert.NotZero(t, got[0].Timestamp)
}

func TestConnect_RequiresUrl(t *testing.T) {
	_, err := Connect("edgeship", NatsConfig{})
	assert.Error(t, err)
}
