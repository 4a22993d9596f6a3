// Package session drives the ask flow: crop the screenshot to the selection,
// record a draft capture, call the model, and persist the outcome. The store
// is optional; without one the model call still runs and only history is
// lost.
package session

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/errors"
	"github.com/glancehq/glance/internal/gemini"
	"github.com/glancehq/glance/internal/store"
)

// Model is the slice of the Gemini client the session needs.
type Model interface {
	Generate(ctx context.Context, input gemini.GenerateInput) (*gemini.Result, error)
}

// Service runs submissions against a model and records them in the store.
type Service struct {
	store *store.Store // nil means no-history mode
	model Model
	log   *logrus.Logger
}

// NewService builds a session service. store may be nil.
func NewService(st *store.Store, model Model, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: st, model: model, log: log}
}

// SubmitInput is one ask: a prompt, an optional screenshot, and an optional
// selection to crop it to.
type SubmitInput struct {
	// CaptureID continues an existing draft; empty creates a new record.
	CaptureID string

	Prompt     string
	Screenshot []byte
	Selection  *capture.Selection
	Mode       string
	ThreadID   string
}

// SubmitResult is the model's answer plus the persisted capture, which is
// nil when the store is unavailable.
type SubmitResult struct {
	Capture  *capture.Capture
	Response string
	Provider string
}

// Submit runs the full ask flow. Store failures are logged and degrade to
// no-history; model failures are recorded on the capture and returned.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if input.Prompt == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}

	img := input.Screenshot
	if len(img) > 0 && input.Selection != nil {
		cropped, err := capture.Crop(img, *input.Selection)
		if err != nil {
			return nil, err
		}
		img = cropped
	}

	record := s.recordDraft(ctx, input, img)
	record = s.update(ctx, record, store.Changes{
		Status: store.StatusOf(capture.StatusPending),
	})

	res, err := s.model.Generate(ctx, gemini.GenerateInput{
		Prompt:        input.Prompt,
		ImageData:     img,
		ImageMIMEType: sniffMIME(img),
	})
	if err != nil {
		s.update(ctx, record, store.Changes{
			Status: store.StatusOf(capture.StatusError),
			Error:  store.String(err.Error()),
		})
		return nil, err
	}

	provider := "gemini/" + res.Version + "/" + res.Model
	record = s.update(ctx, record, store.Changes{
		Status:   store.StatusOf(capture.StatusCompleted),
		Response: store.String(res.Text),
		Provider: store.String(provider),
	})

	return &SubmitResult{Capture: record, Response: res.Text, Provider: provider}, nil
}

// recordDraft persists the initial draft with prompt, selection, mode, and a
// thumbnail of the (cropped) screenshot. Returns nil in no-history mode.
func (s *Service) recordDraft(ctx context.Context, input SubmitInput, img []byte) *capture.Capture {
	if s.store == nil {
		return nil
	}

	changes := store.Changes{
		ID:        input.CaptureID,
		Prompt:    store.String(input.Prompt),
		Selection: input.Selection,
	}
	if input.Mode != "" {
		changes.Mode = store.String(input.Mode)
	}
	if input.ThreadID != "" {
		changes.ThreadID = store.String(input.ThreadID)
	}
	if len(img) > 0 {
		thumb, err := capture.Thumbnail(img)
		if err != nil {
			s.log.WithError(err).Warn("thumbnail generation failed")
		} else {
			changes.ThumbnailDataURL = store.String(thumb)
		}
	}

	record, err := s.store.UpsertCapture(ctx, changes)
	if err != nil {
		s.log.WithError(err).Warn("failed to record capture, continuing without history")
		return nil
	}
	return record
}

// update applies changes to the current record, best-effort. A nil record
// (no-history mode, or an earlier store failure) is passed through.
func (s *Service) update(ctx context.Context, record *capture.Capture, changes store.Changes) *capture.Capture {
	if s.store == nil || record == nil {
		return record
	}
	updated, err := s.store.UpdateCapture(ctx, record.ID, changes)
	if err != nil {
		s.log.WithError(err).WithField("capture_id", record.ID).Warn("failed to update capture")
		return record
	}
	return updated
}

// AttachVideo stores a recording blob and records matching attachment
// metadata on the capture.
func (s *Service) AttachVideo(ctx context.Context, captureID string, data []byte, mimeType string, durationMs int64) (*capture.Capture, error) {
	if s.store == nil {
		return nil, errors.NewStorageUnavailable(nil)
	}
	if captureID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if mimeType == "" {
		mimeType = "video/webm"
	}

	key, err := s.store.SaveBlob(ctx, captureID, "video", data)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateCapture(ctx, captureID, store.Changes{
		Attachments: map[string]capture.Attachment{
			"video": {
				MIMEType:   mimeType,
				Size:       int64(len(data)),
				DurationMs: durationMs,
				BlobKey:    key,
			},
		},
	})
}

func sniffMIME(img []byte) string {
	if len(img) == 0 {
		return ""
	}
	mime := http.DetectContentType(img)
	if mime == "application/octet-stream" {
		return "image/png"
	}
	return mime
}
