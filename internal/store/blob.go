package store

import (
	"context"

	"github.com/glancehq/glance/internal/db"
	"github.com/glancehq/glance/internal/errors"
)

// SaveBlob stores raw binary content under "{captureId}:{kind}" and returns
// the key. The caller is responsible for recording matching attachment
// metadata on the capture.
func (s *Store) SaveBlob(ctx context.Context, captureID, kind string, data []byte) (string, error) {
	if captureID == "" || kind == "" {
		return "", errors.NewInvalidRequest("captureId and kind are required")
	}
	key, err := db.PutBlob(ctx, s.db, captureID, kind, data)
	if err != nil {
		s.log.WithError(err).WithField("capture_id", captureID).Warn("blob save failed")
		return "", err
	}
	return key, nil
}

// GetBlob returns the blob content, or (nil, nil) when absent.
func (s *Store) GetBlob(ctx context.Context, captureID, kind string) ([]byte, error) {
	return db.GetBlob(ctx, s.db, captureID, kind)
}

// DeleteBlob removes one blob. Missing blobs are a no-op.
func (s *Store) DeleteBlob(ctx context.Context, captureID, kind string) error {
	if err := db.DeleteBlob(ctx, s.db, captureID, kind); err != nil {
		s.log.WithError(err).WithField("capture_id", captureID).Warn("blob delete failed")
		return err
	}
	return nil
}
