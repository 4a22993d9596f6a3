package store

import (
	"context"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/db"
)

// ListRecentCaptures returns records sorted by updatedAt descending, each
// with its thumbnail joined in. limit <= 0 means unlimited.
func (s *Store) ListRecentCaptures(ctx context.Context, limit int) ([]*capture.Capture, error) {
	captures, err := db.ListCaptures(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range captures {
		thumb, err := db.GetThumbnail(ctx, s.db, c.ID)
		if err != nil {
			return nil, err
		}
		c.ThumbnailDataURL = thumb
	}
	return captures, nil
}
