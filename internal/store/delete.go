package store

import (
	"context"
	"database/sql"

	"github.com/glancehq/glance/internal/db"
)

// DeleteCapture removes the record, its thumbnail, and every blob referenced
// by its attachments. Unknown ids are a no-op.
//
// Blob deletion happens after the record deletion commits: a failing blob
// delete is logged and propagated but never resurrects the record.
func (s *Store) DeleteCapture(ctx context.Context, id string) error {
	record, err := db.GetCapture(ctx, s.db, id)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := db.DeleteCapture(ctx, tx, id); err != nil {
			return err
		}
		return db.DeleteThumbnail(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if keys := record.BlobKeys(); len(keys) > 0 {
		if err := db.DeleteBlobsByKeys(ctx, s.db, keys); err != nil {
			s.log.WithError(err).WithField("capture_id", id).Warn("failed to delete capture blobs")
			return err
		}
	}
	return nil
}
