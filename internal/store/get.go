package store

import (
	"context"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/db"
)

// GetCapture returns the record plus its thumbnail, or (nil, nil) when the
// id is unknown.
func (s *Store) GetCapture(ctx context.Context, id string) (*capture.Capture, error) {
	c, err := db.GetCapture(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	thumb, err := db.GetThumbnail(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	c.ThumbnailDataURL = thumb
	return c, nil
}
