// Package lock provides keyed mutual exclusion for operations that
// must serialize on a single resource, such as stock movements for one
// item or payment allocation against one invoice.
package lock

import (
	"context"
	"time"
)

// Release unlocks a previously acquired lock.
type Release func()

// Manager hands out exclusive locks keyed by resource identifier.
// Acquire blocks until the lock is held, the timeout elapses, or the
// context is cancelled. A timeout surfaces as shared.ErrBusy so callers
// can map it to a retryable condition.
type Manager interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (Release, error)
}

// ItemKey builds the lock key for stock operations on a single item.
func ItemKey(itemID string) string {
	return "item:" + itemID
}

// InvoiceKey builds the lock key for payment allocation on a single invoice.
func InvoiceKey(invoiceID string) string {
	return "invoice:" + invoiceID
}
