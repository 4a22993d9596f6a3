package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/glancehq/glance/internal/errors"
)

// Rect is a crop rectangle in image pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropRect maps a viewport-space selection onto an image of the given
// natural dimensions. Scale factors are naturalDimension/viewportDimension
// per axis; the scaled rectangle is rounded, clamped to the image bounds,
// and guaranteed at least 1 pixel per dimension.
func CropRect(naturalWidth, naturalHeight int, sel Selection) (Rect, error) {
	if sel.ViewportWidth <= 0 || sel.ViewportHeight <= 0 {
		return Rect{}, errors.NewInvalidRequest("selection viewport dimensions must be positive")
	}

	scaleX := float64(naturalWidth) / sel.ViewportWidth
	scaleY := float64(naturalHeight) / sel.ViewportHeight

	width := max(1, int(math.Round(sel.Width*scaleX)))
	height := max(1, int(math.Round(sel.Height*scaleY)))
	x := max(0, int(math.Round(sel.X*scaleX)))
	y := max(0, int(math.Round(sel.Y*scaleY)))

	// Keep the rectangle inside the image.
	if x > naturalWidth-1 {
		x = naturalWidth - 1
	}
	if y > naturalHeight-1 {
		y = naturalHeight - 1
	}
	width = max(1, min(width, naturalWidth-x))
	height = max(1, min(height, naturalHeight-y))

	return Rect{X: x, Y: y, Width: width, Height: height}, nil
}

// Crop decodes imageData (PNG or JPEG), crops it to the selection rectangle,
// and re-encodes it in the source format.
func Crop(imageData []byte, sel Selection) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("decode image: %v", err))
	}

	bounds := img.Bounds()
	rect, err := CropRect(bounds.Dx(), bounds.Dy(), sel)
	if err != nil {
		return nil, err
	}

	sub := image.Rect(
		bounds.Min.X+rect.X,
		bounds.Min.Y+rect.Y,
		bounds.Min.X+rect.X+rect.Width,
		bounds.Min.Y+rect.Y+rect.Height,
	)

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, errors.NewInternal(fmt.Errorf("image format %s does not support cropping", format))
	}
	cropped := si.SubImage(sub)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(&buf, cropped)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}
