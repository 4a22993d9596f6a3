package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/glancehq/glance/internal/errors"
)

// Thumbnail generation parameters, matching the extension's history strip.
const (
	thumbnailTargetWidth = 200
	thumbnailJPEGQuality = 80
)

// Thumbnail downscales imageData to the target width (preserving aspect
// ratio, never upscaling) and returns it as a JPEG data URL suitable for
// the thumbnail table.
func Thumbnail(imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("decode image: %v", err))
	}

	bounds := img.Bounds()
	scale := float64(thumbnailTargetWidth) / float64(bounds.Dx())
	if scale > 1 {
		scale = 1
	}
	w := max(1, int(math.Round(float64(bounds.Dx())*scale)))
	h := max(1, int(math.Round(float64(bounds.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return "", errors.NewInternal(err)
	}
	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

// EncodeDataURL wraps raw bytes in a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and raw bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errors.NewInvalidRequest("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.NewInvalidRequest("malformed data URL")
	}
	mimeType, _ := strings.CutSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.NewInvalidRequest(fmt.Sprintf("decode data URL payload: %v", err))
	}
	return mimeType, data, nil
}
