// Package refstore provides the reference-data backends and the atomic
// snapshot holder that serves them to the rest of the platform.
package refstore

import (
	"context"
	"sync/atomic"

	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
)

// Provider serves the current reference-data snapshot. Implementations must
// be safe for concurrent use.
type Provider interface {
	Snapshot() *refdata.Snapshot
}

// Holder loads a snapshot from a Store and serves it behind an atomic
// pointer, so readers never observe a partially swapped snapshot. Reload
// replaces the snapshot only when the new load succeeds.
type Holder struct {
	store  refdata.Store
	logger logging.Logger
	cur    atomic.Pointer[refdata.Snapshot]
	onSwap func(old, new *refdata.Snapshot)
}

// HolderOption customizes a Holder.
type HolderOption func(*Holder)

// WithSwapHook registers a callback invoked after every successful reload,
// including the initial load (with a nil old snapshot). Used for reload
// metrics.
func WithSwapHook(fn func(old, new *refdata.Snapshot)) HolderOption {
	return func(h *Holder) { h.onSwap = fn }
}

// NewHolder performs the initial load and returns a ready Holder. A failed
// initial load is fatal for the caller; there is no snapshot to fall back
// to.
func NewHolder(ctx context.Context, store refdata.Store, logger logging.Logger, opts ...HolderOption) (*Holder, error) {
	h := &Holder{
		store:  store,
		logger: logger.Named("refstore"),
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.Reload(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// Snapshot returns the current snapshot.
func (h *Holder) Snapshot() *refdata.Snapshot {
	return h.cur.Load()
}

// Reload fetches a fresh snapshot from the backing store and swaps it in.
// On failure the previous snapshot stays in place and the error is
// returned.
func (h *Holder) Reload(ctx context.Context) error {
	snap, err := h.store.Load(ctx)
	if err != nil {
		h.logger.Error("reference data reload failed", logging.Err(err))
		return err
	}
	old := h.cur.Swap(snap)
	h.logger.Info("reference data loaded",
		logging.String("version", snap.Version()),
		logging.Int("standards", snap.StandardCount()),
		logging.Int("materials", snap.MaterialCount()),
	)
	if h.onSwap != nil {
		h.onSwap(old, snap)
	}
	return nil
}
