package pipeline

import (
	"context"

	"github.com/JakeFAU/pdfingest/internal/element"
)

// ObjectStore reads raw objects. Implementations return an error wrapping
// ErrObjectNotFound when the bucket or key does not exist.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Partitioner converts raw document bytes into an ordered element sequence.
type Partitioner interface {
	Partition(ctx context.Context, in PartitionInput) ([]element.Value, error)
}

// DocumentStore persists documents and returns their store-assigned IDs in
// input order.
type DocumentStore interface {
	InsertMany(ctx context.Context, docs []StoredDocument) ([]string, error)
}

// Publisher delivers a notification and blocks until the transport has
// accepted it.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}
