// Package statestore persists the conversation and memory notes behind a
// small key-value interface.
package statestore

import (
	"context"
	"errors"
)

// KV is a string-keyed byte store.
type KV interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned when a key doesn't exist in the store.
var ErrNotFound = errors.New("statestore: key not found")

// ErrInvalidKey is returned for an empty key.
var ErrInvalidKey = errors.New("statestore: invalid key")
