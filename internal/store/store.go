// Package store persists whole collections as JSON blobs under fixed keys on
// one of several interchangeable backends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Logical collection keys
const (
	ProductsKey        = "db_products"
	SalesKey           = "db_sales"
	SaleProjectionsKey = "db_sale_projections"
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Backend is a durable key-value store. Put replaces the previous value of
// the key as a whole; there is no locking between concurrent writers.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Name() string
	Close() error
}

// ReadList decodes the collection stored under key. It never fails: a missing
// key, an unreadable backend or a malformed payload all yield an empty list.
func ReadList[T any](ctx context.Context, b Backend, key string, log *zap.Logger) []T {
	raw, err := b.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Warn("Store read failed, using empty collection",
				zap.String("backend", b.Name()),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return []T{}
	}

	if len(raw) == 0 {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn("Corrupt collection payload, using empty collection",
			zap.String("backend", b.Name()),
			zap.String("key", key),
			zap.Error(err),
		)
		return []T{}
	}

	if items == nil {
		return []T{}
	}
	return items
}

// WriteList serializes the entire collection and stores it under key
func WriteList[T any](ctx context.Context, b Backend, key string, items []T) error {
	if items == nil {
		items = []T{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := b.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("failed to write %s to %s store: %w", key, b.Name(), err)
	}

	return nil
}
