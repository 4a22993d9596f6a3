package store

import (
	"context"
	"database/sql"

	"github.com/glancehq/glance/internal/db"
)

// ClearAll deletes every record, thumbnail, and blob.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := db.ClearCaptures(ctx, tx); err != nil {
			return err
		}
		if err := db.ClearThumbnails(ctx, tx); err != nil {
			return err
		}
		return db.ClearBlobs(ctx, tx)
	})
}
