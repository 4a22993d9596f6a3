package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/glancehq/glance/internal/errors"
)

func TestThumbnail_DownscalesToTargetWidth(t *testing.T) {
	src := testPNG(t, 800, 400, image.Rect(0, 0, 1, 1))

	dataURL, err := Thumbnail(src)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	mimeType, data, err := DecodeDataURL(dataURL)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", mimeType)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail jpeg: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("thumbnail width = %d, want 200", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 100 {
		t.Errorf("thumbnail height = %d, want 100 (aspect preserved)", img.Bounds().Dy())
	}
}

func TestThumbnail_NeverUpscales(t *testing.T) {
	src := testPNG(t, 60, 30, image.Rect(0, 0, 1, 1))

	dataURL, err := Thumbnail(src)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	_, data, err := DecodeDataURL(dataURL)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail jpeg: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 30 {
		t.Errorf("thumbnail = %dx%d, want 60x30 (no upscaling)",
			img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestThumbnail_RejectsGarbage(t *testing.T) {
	_, err := Thumbnail([]byte("nope"))
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestDataURL_RoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xfe, 0xff}
	dataURL := EncodeDataURL("image/png", payload)

	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Fatalf("dataURL = %q, want data:image/png;base64, prefix", dataURL)
	}

	mimeType, decoded, err := DecodeDataURL(dataURL)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mimeType = %q, want image/png", mimeType)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("decoded = %v, want %v", decoded, payload)
	}
}

func TestDecodeDataURL_Malformed(t *testing.T) {
	cases := []string{
		"image/png;base64,AAAA", // missing data: prefix
		"data:image/png;base64", // no comma
		"data:image/png;base64,!!!!",
	}
	for _, in := range cases {
		if _, _, err := DecodeDataURL(in); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("DecodeDataURL(%q) err = %v, want INVALID_REQUEST", in, err)
		}
	}
}
