// Package cart holds the per-session cart store and the tiers it persists to.
package cart

import (
	"context"
	"errors"
)

var (
	// ErrMiss is returned by a tier that holds nothing for a key.
	ErrMiss = errors.New("cart: tier miss")

	ErrMissingProductID = errors.New("cart: product id is required")
	ErrOutOfStock       = errors.New("cart: product is out of stock")
)

// Tier is one storage location a cart record is written to and read from.
type Tier interface {
	Name() string
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, version int64, payload []byte) error
	Delete(ctx context.Context, key string) error
}
