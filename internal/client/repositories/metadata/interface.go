// Package metadata is the local key/value store the client persists its
// credentials in. Keys are plain strings; values are opaque bytes.
package metadata

import "context"

// Repository is a small key/value store.
//
// Get returns (nil, nil) for a missing key. Delete and DeletePrefix succeed when
// there is nothing to remove. InTx runs fn against a repository bound to a
// single transaction; everything fn writes lands together or not at all.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
}
