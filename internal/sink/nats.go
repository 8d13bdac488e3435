// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/killstream/internal/broker"
	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/logging"
)

// NATSConfig configures the JetStream sink.
type NATSConfig struct {
	URL string

	// SubjectPrefix is followed by the match ID: <prefix>.<matchId>.
	SubjectPrefix string

	Stream broker.StreamConfig
}

// NATSSink publishes one JetStream message per record. Records of one
// match share a subject, so their stream order follows the batch order.
type NATSSink struct {
	publisher     message.Publisher
	subjectPrefix string
}

// NewNATSSink wraps an existing Watermill publisher.
func NewNATSSink(publisher message.Publisher, subjectPrefix string) *NATSSink {
	return &NATSSink{publisher: publisher, subjectPrefix: strings.TrimSuffix(subjectPrefix, ".")}
}

// OpenNATS ensures the stream exists and creates a JetStream publisher.
func OpenNATS(ctx context.Context, cfg NATSConfig, logger watermill.LoggerAdapter) (*NATSSink, error) {
	if cfg.URL == "" || cfg.SubjectPrefix == "" {
		return nil, fmt.Errorf("nats url and subject prefix required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	nc, err := natsgo.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	if _, err := broker.EnsureStream(ctx, js, cfg.Stream); err != nil {
		return nil, err
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL: cfg.URL,
		NatsOptions: []natsgo.Option{
			natsgo.RetryOnFailedConnect(true),
			natsgo.MaxReconnects(-1),
			natsgo.ReconnectWait(time.Second),
			natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
				if err != nil {
					logging.Warn().Err(err).Msg("NATS sink disconnected")
				}
			}),
		},
		Marshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // created above by EnsureStream
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	logging.Info().Str("stream", cfg.Stream.Name).Str("subject_prefix", cfg.SubjectPrefix).Msg("NATS sink ready")
	return NewNATSSink(pub, cfg.SubjectPrefix), nil
}

// Subject returns the subject records of matchID are published to.
func (s *NATSSink) Subject(matchID string) string {
	return s.subjectPrefix + "." + subjectToken(matchID)
}

// BulkInsert publishes records in order and stops at the first failure.
func (s *NATSSink) BulkInsert(ctx context.Context, records []hitevent.DurableRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	for i := range records {
		if err := ctx.Err(); err != nil {
			return observe(s.Name(), start, len(records), err)
		}
		payload, err := json.Marshal(&records[i])
		if err != nil {
			return observe(s.Name(), start, len(records), fmt.Errorf("marshal record %d: %w", i, err))
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("match_id", records[i].MatchID)
		msg.Metadata.Set("attacker_id", records[i].AttackerID)
		msg.SetContext(ctx)

		if err := s.publisher.Publish(s.Subject(records[i].MatchID), msg); err != nil {
			return observe(s.Name(), start, len(records), fmt.Errorf("publish record %d: %w", i, err))
		}
	}
	return observe(s.Name(), start, len(records), nil)
}

// Name implements Sink.
func (s *NATSSink) Name() string {
	return "nats"
}

// Close closes the publisher.
func (s *NATSSink) Close(context.Context) error {
	return s.publisher.Close()
}

// subjectToken replaces characters NATS treats as subject syntax.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
