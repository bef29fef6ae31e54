package repository

import (
	"context"
	"encoding/json"

	"portfoliochat/internal/domain/entity"
)

// ServerTimestamp is replaced by the store with its commit time in unix
// milliseconds.
var ServerTimestamp = map[string]string{".sv": "timestamp"}

// Snapshot is the value found at Path when it was read.
type Snapshot struct {
	Path string
	Raw  json.RawMessage
}

func (s Snapshot) Exists() bool {
	return len(s.Raw) > 0 && string(s.Raw) != "null"
}

func (s Snapshot) Decode(v interface{}) error {
	return json.Unmarshal(s.Raw, v)
}

// Unsubscribe stops a subscription. It is safe to call more than once.
type Unsubscribe func()

// StateListener observes the connection state of a subscription. May be nil.
type StateListener func(entity.ConnectionState)

// RecordStore is the hosted real-time tree database holding every chat record.
// Paths are slash separated.
type RecordStore interface {
	// Push creates a child of path under a store-assigned key that sorts after
	// every key previously pushed to the same path.
	Push(ctx context.Context, path string, value interface{}) (string, error)
	Set(ctx context.Context, path string, value interface{}) error
	// Update writes only the given fields. Field names may contain slashes to
	// reach deeper paths in the same write.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	Get(ctx context.Context, path string) (Snapshot, error)
	// Increment atomically adds delta to the integer at path and returns the
	// committed value. A missing value counts as zero.
	Increment(ctx context.Context, path string, delta int) (int, error)
	// Subscribe delivers the current value at path and then the new value after
	// every change below it, until ctx ends or the Unsubscribe is called.
	Subscribe(ctx context.Context, path string, fn func(Snapshot), onState StateListener) (Unsubscribe, error)
}
