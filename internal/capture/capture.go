package capture

// Status tracks a capture through its lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"     // created, not yet submitted
	StatusPending   Status = "pending"   // submitted to the model
	StatusCompleted Status = "completed" // model call resolved with a response
	StatusError     Status = "error"     // model call failed
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Capture modes.
const (
	ModeRegion = "region" // cropped selection rectangle
	ModeTab    = "tab"    // full visible tab
)

// Selection describes the capture rectangle in viewport coordinates.
type Selection struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Viewport dimensions at capture time, used to scale the rectangle
	// onto the raw screenshot's natural dimensions.
	ViewportWidth  float64 `json:"viewportWidth"`
	ViewportHeight float64 `json:"viewportHeight"`

	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty"`
}

// Attachment is the metadata for a binary payload stored in the blob table.
// The payload itself is addressed by BlobKey, never embedded in the record.
type Attachment struct {
	MIMEType         string `json:"mimeType"`
	Size             int64  `json:"size"`
	DurationMs       int64  `json:"durationMs,omitempty"`
	ThumbnailDataURL string `json:"thumbnailDataUrl,omitempty"`
	BlobKey          string `json:"blobKey"`
}

// Capture is one user-initiated screenshot or video plus its question and
// model response. Timestamps are milliseconds since epoch; UpdatedAt drives
// retention and sort order.
type Capture struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Status    Status `json:"status"`

	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Error    string `json:"error"`

	// Provider is a free-form tag of which model answered, e.g.
	// "gemini/v1/gemini-2.5-flash".
	Provider string `json:"provider,omitempty"`

	// ThreadId groups follow-up questions on the same capture.
	ThreadID string `json:"threadId,omitempty"`

	Selection *Selection `json:"selection,omitempty"`
	Mode      string     `json:"mode,omitempty"`

	// Attachments maps attachment kind (e.g. "video") to its metadata.
	Attachments map[string]Attachment `json:"attachments"`

	// Metadata is an open-ended mapping, shallow-merged on update.
	Metadata map[string]any `json:"metadata"`

	// ThumbnailDataURL is joined in from the parallel thumbnail table.
	// It is never stored on the record row itself, to bound row size.
	ThumbnailDataURL string `json:"thumbnailDataUrl"`
}

// BlobKey builds the blob-table key for a capture's attachment kind.
func BlobKey(captureID, kind string) string {
	return captureID + ":" + kind
}

// BlobKeys returns the blob keys referenced by the capture's attachments.
// An attachment without an explicit BlobKey falls back to the derived
// "{id}:{kind}" key so deletion still cascades.
func (c *Capture) BlobKeys() []string {
	if len(c.Attachments) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Attachments))
	for kind, att := range c.Attachments {
		key := att.BlobKey
		if key == "" {
			key = BlobKey(c.ID, kind)
		}
		keys = append(keys, key)
	}
	return keys
}

// RetentionPolicy bounds the capture history by count and age. A nil
// criterion disables that check.
type RetentionPolicy struct {
	MaxEntries *int     `json:"maxEntries"`
	MaxAgeDays *float64 `json:"maxAgeDays"`
}

// Retention defaults.
const (
	DefaultMaxEntries = 50
	DefaultMaxAgeDays = 14
)

// DefaultRetentionPolicy returns the default policy of 50 entries / 14 days.
func DefaultRetentionPolicy() RetentionPolicy {
	maxEntries := DefaultMaxEntries
	maxAgeDays := float64(DefaultMaxAgeDays)
	return RetentionPolicy{
		MaxEntries: &maxEntries,
		MaxAgeDays: &maxAgeDays,
	}
}
