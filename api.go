// Package grader provides the scoring and filtered-query engine behind vehicle
// reliability grades. Relational reads go through sqlx; supplemental per-group
// files come from a provider-agnostic blob store.
package grader

import (
	"context"

	"github.com/zoobzio/grader/internal/shared"
)

// Semantic errors (re-exported from internal/shared).
var (
	ErrNotFound   = shared.ErrNotFound
	ErrValidation = shared.ErrValidation
	ErrStore      = shared.ErrStore
)

// ValidationError is re-exported from internal/shared for the public API.
type ValidationError = shared.ValidationError

// StoreError is re-exported from internal/shared for the public API.
type StoreError = shared.StoreError

// ObjectInfo is re-exported from internal/shared for the public API.
type ObjectInfo = shared.ObjectInfo

// BucketProvider defines read-only blob storage operations.
// Implementations (s3, minio) satisfy this interface.
type BucketProvider interface {
	// Get retrieves the blob at key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error)

	// List returns object info for keys matching the given prefix.
	// Limit of 0 means no limit.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
}
