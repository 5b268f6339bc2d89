// Package writer applies item patches and confirms them by reading the item back.
package writer

import (
	"context"

	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Result describes the outcome of ApplyUpdate.
type Result struct {
	Applied  bool
	Verified bool
	Fields   []string
	Item     *types.Item // re-read item; nil when nothing was written
}

// Writer performs verified writes against a store.
type Writer struct {
	store  itemstore.Store
	logger *zap.Logger
}

// New creates a Writer. A nil logger disables logging.
func New(store itemstore.Store, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, logger: logger}
}

// ApplyUpdate writes patch to item id and re-reads it to confirm every patched
// field holds exactly the written value. In dry-run mode, or for an empty
// patch, the store is never touched.
func (w *Writer) ApplyUpdate(ctx context.Context, id string, patch types.ItemPatch, dryRun bool) (*Result, error) {
	fields := patch.Fields()
	if dryRun || patch.IsEmpty() {
		w.logger.Debug("write skipped",
			zap.String("item_id", id),
			zap.Bool("dry_run", dryRun),
			zap.Strings("fields", fields))
		return &Result{Fields: fields}, nil
	}

	if _, err := w.store.ApplyPatch(ctx, id, patch); err != nil {
		return nil, &WriteError{ItemID: id, Message: "failed to apply patch", Cause: err}
	}

	reread, err := w.store.GetByID(ctx, id)
	if err != nil {
		return nil, &WriteError{ItemID: id, Message: "failed to re-read item", Cause: err}
	}

	if mismatches := patch.Mismatches(*reread); len(mismatches) > 0 {
		w.logger.Error("write verification failed",
			zap.String("item_id", id),
			zap.Int("mismatches", len(mismatches)))
		return nil, &VerificationMismatchError{ItemID: id, Mismatches: mismatches}
	}

	w.logger.Info("patch applied",
		zap.String("item_id", id),
		zap.Strings("fields", fields),
		zap.Time("updated_at", reread.UpdatedAt))

	return &Result{Applied: true, Verified: true, Fields: fields, Item: reread}, nil
}
