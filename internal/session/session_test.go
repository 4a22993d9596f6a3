package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/db"
	"github.com/glancehq/glance/internal/errors"
	"github.com/glancehq/glance/internal/gemini"
	"github.com/glancehq/glance/internal/store"
)

type fakeModel struct {
	result *gemini.Result
	err    error
	lastIn gemini.GenerateInput
	calls  int
}

func (f *fakeModel) Generate(ctx context.Context, input gemini.GenerateInput) (*gemini.Result, error) {
	f.calls++
	f.lastIn = input
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testService(t *testing.T, model Model) (*Service, *store.Store) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	st := store.OpenDB(database, store.Options{Logger: quietLogger()})
	t.Cleanup(func() { st.Close() })
	return NewService(st, model, quietLogger()), st
}

// testPNG renders a w x h image with a distinct top-left quadrant.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{0, 0, 255, 255}
			if x < w/2 && y < h/2 {
				c = color.RGBA{255, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSubmitLifecycle(t *testing.T) {
	model := &fakeModel{result: &gemini.Result{Text: "a red square", Model: "gemini-2.5-flash", Version: "v1"}}
	svc, st := testService(t, model)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{
		Prompt:     "what is highlighted?",
		Screenshot: testPNG(t, 400, 300),
		Mode:       capture.ModeRegion,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Response != "a red square" {
		t.Errorf("unexpected response: %q", res.Response)
	}
	if res.Provider != "gemini/v1/gemini-2.5-flash" {
		t.Errorf("unexpected provider: %q", res.Provider)
	}
	if model.calls != 1 {
		t.Errorf("expected one model call, got %d", model.calls)
	}

	rec, err := st.GetCapture(ctx, res.Capture.ID)
	if err != nil {
		t.Fatalf("GetCapture failed: %v", err)
	}
	if rec.Status != capture.StatusCompleted {
		t.Errorf("expected completed, got %q", rec.Status)
	}
	if rec.Response != "a red square" {
		t.Errorf("response not persisted: %q", rec.Response)
	}
	if rec.Prompt != "what is highlighted?" {
		t.Errorf("prompt not persisted: %q", rec.Prompt)
	}
	if !strings.HasPrefix(rec.ThumbnailDataURL, "data:image/jpeg;base64,") {
		t.Errorf("thumbnail not recorded: %q", rec.ThumbnailDataURL)
	}
}

func TestSubmitCropsToSelection(t *testing.T) {
	model := &fakeModel{result: &gemini.Result{Text: "ok", Model: "m", Version: "v1"}}
	svc, _ := testService(t, model)

	sel := &capture.Selection{
		X: 0, Y: 0, Width: 100, Height: 50,
		ViewportWidth: 200, ViewportHeight: 150, DevicePixelRatio: 1,
	}
	_, err := svc.Submit(context.Background(), SubmitInput{
		Prompt:     "p",
		Screenshot: testPNG(t, 400, 300), // 2x the viewport
		Selection:  sel,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(model.lastIn.ImageData))
	if err != nil {
		t.Fatalf("model got undecodable image: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("expected 200x100 crop, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if model.lastIn.ImageMIMEType != "image/png" {
		t.Errorf("unexpected mime: %q", model.lastIn.ImageMIMEType)
	}
}

func TestSubmitRecordsModelError(t *testing.T) {
	model := &fakeModel{err: errors.NewModelRequest(429, "quota exceeded")}
	svc, st := testService(t, model)
	ctx := context.Background()

	// Seed a draft so we can find the record afterwards.
	draft, err := st.UpsertCapture(ctx, store.Changes{})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err = svc.Submit(ctx, SubmitInput{CaptureID: draft.ID, Prompt: "p"})
	if !errors.Is(err, errors.ErrModelRequest) {
		t.Fatalf("expected MODEL_REQUEST_FAILED, got %v", err)
	}

	rec, err := st.GetCapture(ctx, draft.ID)
	if err != nil {
		t.Fatalf("GetCapture failed: %v", err)
	}
	if rec.Status != capture.StatusError {
		t.Errorf("expected error status, got %q", rec.Status)
	}
	if !strings.Contains(rec.Error, "quota exceeded") {
		t.Errorf("error text not recorded: %q", rec.Error)
	}
}

func TestSubmitWithoutStore(t *testing.T) {
	model := &fakeModel{result: &gemini.Result{Text: "still works", Model: "m", Version: "v1"}}
	svc := NewService(nil, model, quietLogger())

	res, err := svc.Submit(context.Background(), SubmitInput{Prompt: "p"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Response != "still works" {
		t.Errorf("unexpected response: %q", res.Response)
	}
	if res.Capture != nil {
		t.Errorf("expected no capture in no-history mode, got %+v", res.Capture)
	}
}

func TestSubmitRequiresPrompt(t *testing.T) {
	svc := NewService(nil, &fakeModel{}, quietLogger())

	_, err := svc.Submit(context.Background(), SubmitInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestAttachVideo(t *testing.T) {
	svc, st := testService(t, &fakeModel{})
	ctx := context.Background()

	draft, err := st.UpsertCapture(ctx, store.Changes{})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	data := []byte("webm bytes")
	rec, err := svc.AttachVideo(ctx, draft.ID, data, "video/webm", 4200)
	if err != nil {
		t.Fatalf("AttachVideo failed: %v", err)
	}
	att, ok := rec.Attachments["video"]
	if !ok {
		t.Fatalf("video attachment missing: %+v", rec.Attachments)
	}
	if att.BlobKey != draft.ID+":video" || att.Size != int64(len(data)) || att.DurationMs != 4200 {
		t.Errorf("unexpected attachment: %+v", att)
	}

	blob, err := st.GetBlob(ctx, draft.ID, "video")
	if err != nil {
		t.Fatalf("GetBlob failed: %v", err)
	}
	if !bytes.Equal(blob, data) {
		t.Errorf("blob content mismatch")
	}
}
