package store

import (
	"context"
	"database/sql"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/db"
	"github.com/glancehq/glance/internal/errors"
)

// Changes describes a partial capture mutation. Nil pointer fields are left
// untouched on merge; Metadata and Attachments are shallow-merged rather
// than replaced.
type Changes struct {
	ID string `json:"id,omitempty"`

	Prompt   *string         `json:"prompt,omitempty"`
	Response *string         `json:"response,omitempty"`
	Status   *capture.Status `json:"status,omitempty"`
	Error    *string         `json:"error,omitempty"`
	Provider *string         `json:"provider,omitempty"`
	ThreadID *string         `json:"threadId,omitempty"`

	Selection *capture.Selection `json:"selection,omitempty"`
	Mode      *string            `json:"mode,omitempty"`

	Metadata    map[string]any                `json:"metadata,omitempty"`
	Attachments map[string]capture.Attachment `json:"attachments,omitempty"`

	// ThumbnailDataURL updates the parallel thumbnail table: a non-empty
	// value stores/overwrites the thumbnail, an empty non-nil value deletes
	// it, nil leaves it alone.
	ThumbnailDataURL *string `json:"thumbnailDataUrl,omitempty"`
}

// UpsertCapture creates or merges a capture record. An absent or unknown id
// creates a fresh draft record stamped with the current time; a known id
// merges the present fields and always refreshes updatedAt. The returned
// record includes its thumbnail.
//
// Two surfaces upserting the same id concurrently race: whichever
// merge-and-persist sequence completes last wins. Accepted limitation.
func (s *Store) UpsertCapture(ctx context.Context, changes Changes) (*capture.Capture, error) {
	if changes.Status != nil && !changes.Status.Valid() {
		return nil, errors.NewInvalidRequest("status must be one of: draft, pending, completed, error")
	}

	now := s.nowMillis()

	var merged *capture.Capture
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current *capture.Capture
		if changes.ID != "" {
			existing, err := db.GetCapture(ctx, tx, changes.ID)
			if err != nil {
				return err
			}
			current = existing
		}

		if current == nil {
			id := changes.ID
			if id == "" {
				var err error
				if id, err = newID(s.now()); err != nil {
					return err
				}
			}
			current = &capture.Capture{
				ID:          id,
				CreatedAt:   now,
				UpdatedAt:   now,
				Status:      capture.StatusDraft,
				Attachments: map[string]capture.Attachment{},
				Metadata:    map[string]any{},
			}
		}

		applyChanges(current, changes, now)

		if err := db.PutCapture(ctx, tx, current); err != nil {
			return err
		}

		if changes.ThumbnailDataURL != nil {
			if *changes.ThumbnailDataURL != "" {
				if err := db.SetThumbnail(ctx, tx, current.ID, *changes.ThumbnailDataURL); err != nil {
					return err
				}
				current.ThumbnailDataURL = *changes.ThumbnailDataURL
			} else {
				if err := db.DeleteThumbnail(ctx, tx, current.ID); err != nil {
					return err
				}
				current.ThumbnailDataURL = ""
			}
		} else {
			thumb, err := db.GetThumbnail(ctx, tx, current.ID)
			if err != nil {
				return err
			}
			current.ThumbnailDataURL = thumb
		}

		merged = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// UpdateCapture is sugar for UpsertCapture with the id forced.
func (s *Store) UpdateCapture(ctx context.Context, id string, updates Changes) (*capture.Capture, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	updates.ID = id
	return s.UpsertCapture(ctx, updates)
}

// applyChanges merges the present fields of changes into c. Scalars are
// overwritten only when present; metadata and attachments are shallow-merged
// (new keys added or overwritten, untouched keys preserved); updatedAt is
// always refreshed.
func applyChanges(c *capture.Capture, changes Changes, now int64) {
	c.UpdatedAt = now

	if changes.Prompt != nil {
		c.Prompt = *changes.Prompt
	}
	if changes.Response != nil {
		c.Response = *changes.Response
	}
	if changes.Status != nil {
		c.Status = *changes.Status
	}
	if changes.Error != nil {
		c.Error = *changes.Error
	}
	if changes.Provider != nil {
		c.Provider = *changes.Provider
	}
	if changes.ThreadID != nil {
		c.ThreadID = *changes.ThreadID
	}
	if changes.Selection != nil {
		sel := *changes.Selection
		c.Selection = &sel
	}
	if changes.Mode != nil {
		c.Mode = *changes.Mode
	}

	if len(changes.Metadata) > 0 {
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		for k, v := range changes.Metadata {
			c.Metadata[k] = v
		}
	}
	if len(changes.Attachments) > 0 {
		if c.Attachments == nil {
			c.Attachments = map[string]capture.Attachment{}
		}
		for k, v := range changes.Attachments {
			c.Attachments[k] = v
		}
	}
}

// Helpers for building Changes values.

// String returns a pointer to s, for Changes literals.
func String(s string) *string { return &s }

// StatusOf returns a pointer to st, for Changes literals.
func StatusOf(st capture.Status) *capture.Status { return &st }
