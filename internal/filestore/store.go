// Package filestore manages uploaded day files in object storage and turns
// stored files back into day records.
package filestore

import (
	"context"
	"time"
)

// Object describes one stored object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the storage backend. Get returns an error matching
// domain.ErrNotFound when the key does not exist.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
}
