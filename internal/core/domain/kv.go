package domain

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrStorageFailure = errors.New("storage operation failed")
)

// KeyValueStore is the durable storage contract the engine persists through.
// Values are opaque strings; the engine always stores JSON-serialized
// envelopes. Absence is reported as ErrKeyNotFound, never as corrupt data.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	// Writes are all-or-nothing from the caller's perspective.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
