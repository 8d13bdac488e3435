// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package sink

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/killstream/internal/broker"
	"github.com/tomtom215/killstream/internal/hitevent"
)

func TestNATSSink_PublishesToJetStream(t *testing.T) {
	srv, err := broker.StartEmbedded(broker.ServerConfig{Host: "127.0.0.1", Port: -1, StoreDir: t.TempDir()})
	if err != nil {
		t.Fatalf("StartEmbedded() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	streamCfg := broker.DefaultStreamConfig()
	s, err := OpenNATS(ctx, NATSConfig{URL: srv.ClientURL(), SubjectPrefix: "kill.events", Stream: streamCfg}, nil)
	if err != nil {
		t.Fatalf("OpenNATS() error = %v", err)
	}
	defer s.Close(ctx)

	records := testRecords(3)
	records[2].MatchID = "m.2"
	if err := s.BulkInsert(ctx, records); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New() error = %v", err)
	}
	stream, err := js.Stream(ctx, streamCfg.Name)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{AckPolicy: jetstream.AckNonePolicy})
	if err != nil {
		t.Fatalf("CreateOrUpdateConsumer() error = %v", err)
	}
	batch, err := cons.Fetch(3, jetstream.FetchMaxWait(5*time.Second))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	var got []hitevent.DurableRecord
	var subjects []string
	for msg := range batch.Messages() {
		var rec hitevent.DurableRecord
		if err := json.Unmarshal(msg.Data(), &rec); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, rec)
		subjects = append(subjects, msg.Subject())
	}

	if len(got) != 3 {
		t.Fatalf("fetched %d messages, want 3", len(got))
	}
	for i := range records {
		if got[i].HitID != records[i].HitID {
			t.Errorf("message %d hitId = %q, want %q", i, got[i].HitID, records[i].HitID)
		}
	}
	if subjects[0] != "kill.events.m1" || subjects[2] != "kill.events.m_2" {
		t.Errorf("subjects = %v", subjects)
	}
}

func TestSubjectToken(t *testing.T) {
	tests := map[string]string{
		"m1":      "m1",
		"a.b":     "a_b",
		"x*>y":    "x__y",
		"":        "_",
		"has sp ": "has_sp_",
	}
	for in, want := range tests {
		if got := subjectToken(in); got != want {
			t.Errorf("subjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenNATS_RequiresConfig(t *testing.T) {
	if _, err := OpenNATS(context.Background(), NATSConfig{}, nil); err == nil {
		t.Error("OpenNATS() with empty config error = nil")
	}
}
