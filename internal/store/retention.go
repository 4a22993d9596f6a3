package store

import (
	"context"
	"database/sql"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/db"
)

const millisPerDay = 24 * 60 * 60 * 1000

// EnforceRetention applies the retention policy: records are sorted by
// updatedAt descending, and any record at index >= MaxEntries OR older than
// MaxAgeDays is removed together with its thumbnail and blobs. The two
// criteria apply independently; a nil criterion is disabled.
//
// A non-nil override replaces the store's configured policy for this sweep
// only. Returns the number of removed records.
func (s *Store) EnforceRetention(ctx context.Context, override *capture.RetentionPolicy) (int, error) {
	policy := s.policy
	if override != nil {
		policy = *override
	}
	if policy.MaxEntries == nil && policy.MaxAgeDays == nil {
		return 0, nil
	}

	records, err := db.ListCaptures(ctx, s.db, 0)
	if err != nil {
		return 0, err
	}

	now := s.nowMillis()
	var maxAgeMillis int64 = -1
	if policy.MaxAgeDays != nil {
		maxAgeMillis = int64(*policy.MaxAgeDays * millisPerDay)
	}

	var removals []*capture.Capture
	for i, record := range records {
		tooMany := policy.MaxEntries != nil && i >= *policy.MaxEntries
		tooOld := maxAgeMillis >= 0 && now-record.UpdatedAt > maxAgeMillis
		if tooMany || tooOld {
			removals = append(removals, record)
		}
	}
	if len(removals) == 0 {
		return 0, nil
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, record := range removals {
			if err := db.DeleteCapture(ctx, tx, record.ID); err != nil {
				return err
			}
			if err := db.DeleteThumbnail(ctx, tx, record.ID); err != nil {
				return err
			}
			if keys := record.BlobKeys(); len(keys) > 0 {
				if err := db.DeleteBlobsByKeys(ctx, tx, keys); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithField("removed", len(removals)).Debug("retention sweep")
	return len(removals), nil
}
