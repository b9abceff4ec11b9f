// Package tx provides the unit-of-work abstraction used by the stock service.
// Implementations live in infrastructure/storage (postgres and memory).
package tx

import (
	"context"
)

// Manager runs a function as one all-or-nothing unit of work.
//
// If fn returns an error, every write made through ctx is discarded.
// If fn succeeds, all writes become visible together.
// Nested calls reuse the unit of work already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
