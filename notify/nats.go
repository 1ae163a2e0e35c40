package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const DefaultSubjectPrefix = "edgeship"

type (
	NatsConfig struct {
		Url           string
		Jwt           string
		Seed          string
		CredsFile     string
		SubjectPrefix string
	}

	// Publisher is the part of *nats.Conn the sink needs.
	Publisher interface {
		Publish(subj string, data []byte) error
	}
)

// Connect opens a NATS connection for progress events.
func Connect(name string, cfg NatsConfig) (*nats.Conn, error) {
	if strings.TrimSpace(cfg.Url) == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
	}

	switch {
	case cfg.CredsFile != "":
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	case cfg.Jwt != "":
		opts = append(opts, nats.UserJWTAndSeed(cfg.Jwt, cfg.Seed))
	}

	nc, err := nats.Connect(cfg.Url, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats at %s: %w", cfg.Url, err)
	}
	return nc, nil
}

// NewNatsSink publishes each event as JSON on <prefix>.submission.<state>.
func NewNatsSink(pub Publisher, prefix string, logger zerolog.Logger) Sink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &natsSink{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "."),
		log:    logger,
	}
}

type natsSink struct {
	pub    Publisher
	prefix string
	log    zerolog.Logger
}

func (n *natsSink) Subject(evt Event) string {
	return fmt.Sprintf("%s.submission.%s", n.prefix, evt.State)
}

func (n *natsSink) Notify(_ context.Context, evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		n.log.Warn().Err(err).Msg("unable to encode progress event")
		return
	}

	// -- progress is observational, a failed publish never aborts a run
	if err := n.pub.Publish(n.Subject(evt), b); err != nil {
		n.log.Warn().Err(err).Str("subject", n.Subject(evt)).Msg("unable to publish progress event")
	}
}
