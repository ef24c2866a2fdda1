// Package kv provides the flat key-value substrate the local stores persist
// into. Values are opaque byte blobs; keys are plain strings.
package kv

import (
	"context"
	"errors"
)

// ErrDelete may be returned by an UpdateFunc to remove the key instead of
// writing a new value.
var ErrDelete = errors.New("kv: delete key")

// UpdateFunc receives the current value (ok is false when the key is absent)
// and returns the value to store. Any error other than ErrDelete aborts the
// update and leaves the key untouched. fn must not call back into the Store.
type UpdateFunc func(old []byte, ok bool) ([]byte, error)

// Store is a key-value backend. Update is atomic with respect to other
// Update calls on the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// apply runs fn and reports what the backend should do with the key.
func apply(fn UpdateFunc, old []byte, ok bool) (value []byte, del bool, err error) {
	value, err = fn(old, ok)
	if errors.Is(err, ErrDelete) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, false, nil
}
