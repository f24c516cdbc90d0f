package transport

import (
	"context"

	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
)

// StoreTransport persists records instead of forwarding them.
type StoreTransport struct {
	Store store.Store
}

func (t StoreTransport) Submit(ctx context.Context, rec submission.Record) error {
	return t.Store.Save(ctx, rec)
}

// Fanout submits to every transport in order and stops at the first failure. Later
// transports never see a record an earlier one rejected, so the store belongs last.
type Fanout []submission.Transport

func (f Fanout) Submit(ctx context.Context, rec submission.Record) error {
	for _, t := range f {
		if err := t.Submit(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
