package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/errors"
)

// PutCapture inserts or replaces a capture record row. Thumbnails and blobs
// live in their own tables and are not touched here.
func PutCapture(ctx context.Context, q DBTX, c *capture.Capture) error {
	selectionJSON, err := marshalNullable(c.Selection)
	if err != nil {
		return errors.NewInternal(err)
	}
	attachmentsJSON, err := marshalMap(c.Attachments)
	if err != nil {
		return errors.NewInternal(err)
	}
	metadataJSON, err := marshalMap(c.Metadata)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT OR REPLACE INTO captures (
			id, created_at, updated_at, status, prompt, response,
			error, provider, thread_id, selection_json, mode,
			attachments_json, metadata_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		c.ID, c.CreatedAt, c.UpdatedAt, string(c.Status), c.Prompt, c.Response,
		c.Error, c.Provider, c.ThreadID, selectionJSON, c.Mode,
		attachmentsJSON, metadataJSON,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCapture retrieves a capture record by id. Returns (nil, nil) when the
// record does not exist; absence is an expected read-path result, not an
// error.
func GetCapture(ctx context.Context, q DBTX, id string) (*capture.Capture, error) {
	query := `
		SELECT id, created_at, updated_at, status, prompt, response,
			error, provider, thread_id, selection_json, mode,
			attachments_json, metadata_json
		FROM captures
		WHERE id = ?
	`

	c, err := scanCapture(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListCaptures returns all capture records sorted by updated_at descending.
// Ties are broken by id descending so the order is deterministic.
// limit <= 0 means unlimited.
func ListCaptures(ctx context.Context, q DBTX, limit int) ([]*capture.Capture, error) {
	query := `
		SELECT id, created_at, updated_at, status, prompt, response,
			error, provider, thread_id, selection_json, mode,
			attachments_json, metadata_json
		FROM captures
		ORDER BY updated_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var captures []*capture.Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return captures, nil
}

// DeleteCapture removes a capture record row. Missing rows are a no-op.
func DeleteCapture(ctx context.Context, q DBTX, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ClearCaptures removes every capture record row.
func ClearCaptures(ctx context.Context, q DBTX) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM captures`); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Thumbnail table

// SetThumbnail stores or overwrites the thumbnail data URL for a capture.
func SetThumbnail(ctx context.Context, q DBTX, captureID, dataURL string) error {
	query := `INSERT OR REPLACE INTO thumbnails (capture_id, data_url) VALUES (?, ?)`
	if _, err := q.ExecContext(ctx, query, captureID, dataURL); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetThumbnail returns the thumbnail data URL for a capture, or "" if none.
func GetThumbnail(ctx context.Context, q DBTX, captureID string) (string, error) {
	var dataURL string
	err := q.QueryRowContext(ctx,
		`SELECT data_url FROM thumbnails WHERE capture_id = ?`, captureID,
	).Scan(&dataURL)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return dataURL, nil
}

// DeleteThumbnail removes the thumbnail entry for a capture, if any.
func DeleteThumbnail(ctx context.Context, q DBTX, captureID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM thumbnails WHERE capture_id = ?`, captureID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ClearThumbnails removes every thumbnail entry.
func ClearThumbnails(ctx context.Context, q DBTX) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM thumbnails`); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Blob table

// PutBlob stores raw binary content under "{captureID}:{kind}".
func PutBlob(ctx context.Context, q DBTX, captureID, kind string, data []byte) (string, error) {
	key := capture.BlobKey(captureID, kind)
	query := `INSERT OR REPLACE INTO blobs (key, capture_id, kind, data) VALUES (?, ?, ?, ?)`
	if _, err := q.ExecContext(ctx, query, key, captureID, kind, data); err != nil {
		return "", errors.NewBlobFailed(key, err)
	}
	return key, nil
}

// GetBlob retrieves raw binary content. Returns (nil, nil) when absent.
func GetBlob(ctx context.Context, q DBTX, captureID, kind string) ([]byte, error) {
	key := capture.BlobKey(captureID, kind)
	var data []byte
	err := q.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewBlobFailed(key, err)
	}
	return data, nil
}

// DeleteBlob removes one blob by capture id and kind. Missing keys are a no-op.
func DeleteBlob(ctx context.Context, q DBTX, captureID, kind string) error {
	key := capture.BlobKey(captureID, kind)
	if _, err := q.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return errors.NewBlobFailed(key, err)
	}
	return nil
}

// DeleteBlobsByKeys removes the given blob keys.
func DeleteBlobsByKeys(ctx context.Context, q DBTX, keys []string) error {
	for _, key := range keys {
		if _, err := q.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
			return errors.NewBlobFailed(key, err)
		}
	}
	return nil
}

// ClearBlobs removes every blob.
func ClearBlobs(ctx context.Context, q DBTX) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM blobs`); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCapture reads one captures row into a Capture.
func scanCapture(row rowScanner) (*capture.Capture, error) {
	var (
		c               capture.Capture
		status          string
		selectionJSON   sql.NullString
		attachmentsJSON string
		metadataJSON    string
	)

	err := row.Scan(
		&c.ID, &c.CreatedAt, &c.UpdatedAt, &status, &c.Prompt, &c.Response,
		&c.Error, &c.Provider, &c.ThreadID, &selectionJSON, &c.Mode,
		&attachmentsJSON, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	c.Status = capture.Status(status)

	if selectionJSON.Valid && selectionJSON.String != "" {
		var sel capture.Selection
		if err := json.Unmarshal([]byte(selectionJSON.String), &sel); err != nil {
			return nil, err
		}
		c.Selection = &sel
	}

	c.Attachments = map[string]capture.Attachment{}
	if attachmentsJSON != "" {
		if err := json.Unmarshal([]byte(attachmentsJSON), &c.Attachments); err != nil {
			return nil, err
		}
	}

	c.Metadata = map[string]any{}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &c.Metadata); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// marshalNullable JSON-encodes v, mapping nil pointers to SQL NULL.
func marshalNullable(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if sel, ok := v.(*capture.Selection); ok && sel == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// marshalMap JSON-encodes a map, mapping nil to "{}".
func marshalMap(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" {
		s = "{}"
	}
	return s, nil
}
