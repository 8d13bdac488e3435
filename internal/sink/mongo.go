// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/logging"
)

// MongoConfig configures the MongoDB sink.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// DocumentInserter is the subset of *mongo.Collection used by MongoSink.
type DocumentInserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoSink writes each batch with one ordered InsertMany. The driver adds
// an ObjectID per document, so identical records stay distinct.
type MongoSink struct {
	coll   DocumentInserter
	client *mongo.Client
}

// NewMongoSink wraps a collection (or any DocumentInserter).
func NewMongoSink(coll DocumentInserter) *MongoSink {
	return &MongoSink{coll: coll}
}

// OpenMongo connects to MongoDB and pings the primary.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoSink, error) {
	if cfg.URI == "" || cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("mongo uri, database and collection required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logging.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("MongoDB sink connected")

	return &MongoSink{
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		client: client,
	}, nil
}

// BulkInsert implements Sink.
func (s *MongoSink) BulkInsert(ctx context.Context, records []hitevent.DurableRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}

	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return observe(s.Name(), start, len(records), err)
}

// Name implements Sink.
func (s *MongoSink) Name() string {
	return "mongo"
}

// Close disconnects the client when the sink owns one.
func (s *MongoSink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
