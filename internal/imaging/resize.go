// Package imaging bounds screenshot images to a maximum pixel dimension
// before they are sent to the description model. Capping the longest side
// keeps upload latency and model memory bounded regardless of source
// resolution.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultMaxDimension is the maximum dimension (width or height) for images
// sent to the description model.
const DefaultMaxDimension = 720

// PNGMIMEType is the MIME type attached to encoded payloads.
const PNGMIMEType = "image/png"

// LoadBoundedPNG reads a PNG file, downscales it so that its longest side is
// at most maxDimension (preserving aspect ratio), and returns the re-encoded
// PNG bytes. Images already within bounds are re-encoded without resizing.
func LoadBoundedPNG(filePath string, maxDimension int) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	bounded := Bound(img, maxDimension)

	var buf bytes.Buffer
	if err := png.Encode(&buf, bounded); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	log.Debug().
		Str("path", filePath).
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("width", bounded.Bounds().Dx()).
		Int("height", bounded.Bounds().Dy()).
		Int("output_size", buf.Len()).
		Msg("Bounded image encoded")

	return buf.Bytes(), nil
}

// Bound downscales img so that its longest side is at most maxDimension,
// preserving aspect ratio. Images already within bounds are returned
// unchanged; Bound never upscales.
func Bound(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDimension && height <= maxDimension {
		return img
	}

	newWidth, newHeight := boundedDimensions(width, height, maxDimension)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// boundedDimensions computes the target size with the longest side capped at
// maxDimension and the aspect ratio preserved.
func boundedDimensions(width, height, maxDimension int) (int, int) {
	if width > height {
		newWidth := maxDimension
		newHeight := height * maxDimension / width
		if newHeight < 1 {
			newHeight = 1
		}
		return newWidth, newHeight
	}

	newHeight := maxDimension
	newWidth := width * maxDimension / height
	if newWidth < 1 {
		newWidth = 1
	}
	return newWidth, newHeight
}
