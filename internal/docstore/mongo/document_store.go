// Package mongo stores documents in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/element"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// Config selects the deployment, database, and collection.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type inserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// DocumentStore writes StoredDocuments as {_id, elements} documents.
type DocumentStore struct {
	client *mongo.Client
	coll   inserter
	logger *zap.Logger
}

// New connects with the Stable API v1 and pings the primary.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*DocumentStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("docstore.mongo.uri is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("docstore.mongo database and collection are required")
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	store := NewWithCollection(client.Database(cfg.Database).Collection(cfg.Collection), logger)
	store.client = client
	return store, nil
}

// NewWithCollection wraps an existing collection handle (primarily for testing).
func NewWithCollection(coll *mongo.Collection, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{coll: coll, logger: logger}
}

// Ping checks connectivity to the primary. Stores built from a bare
// collection report nil.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close disconnects the client when the store owns one.
func (s *DocumentStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// InsertMany inserts docs in one round trip and returns their ObjectIDs as hex.
func (s *DocumentStore) InsertMany(ctx context.Context, docs []pipeline.StoredDocument) ([]string, error) {
	if s == nil || s.coll == nil {
		return nil, fmt.Errorf("document store is not configured")
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to insert")
	}
	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		batch = append(batch, toBSON(doc))
	}
	res, err := s.coll.InsertMany(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("insert documents: %w", err)
	}
	ids := make([]string, 0, len(res.InsertedIDs))
	for _, raw := range res.InsertedIDs {
		if oid, ok := raw.(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
			continue
		}
		ids = append(ids, fmt.Sprint(raw))
	}
	s.logger.Debug("documents inserted", zap.Strings("ids", ids))
	return ids, nil
}

func toBSON(doc pipeline.StoredDocument) bson.D {
	elements := make(bson.A, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		elements = append(elements, valueToBSON(el))
	}
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "elements", Value: elements},
	}
}

// valueToBSON keeps object field order by mapping objects to bson.D.
func valueToBSON(v element.Value) interface{} {
	switch v.Kind() {
	case element.KindBool:
		b, _ := v.AsBool()
		return b
	case element.KindNumber:
		if n, ok := v.AsInt(); ok {
			return n
		}
		f, _ := v.AsFloat()
		return f
	case element.KindString:
		s, _ := v.AsString()
		return s
	case element.KindList:
		items := v.Items()
		out := make(bson.A, 0, len(items))
		for _, item := range items {
			out = append(out, valueToBSON(item))
		}
		return out
	case element.KindObject:
		fields := v.Fields()
		out := make(bson.D, 0, len(fields))
		for _, f := range fields {
			out = append(out, bson.E{Key: f.Key, Value: valueToBSON(f.Value)})
		}
		return out
	default:
		return nil
	}
}
