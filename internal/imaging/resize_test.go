package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestBoundedDimensions(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		max        int
		wantWidth  int
		wantHeight int
	}{
		{"Landscape downscale", 1920, 1080, 720, 720, 405},
		{"Portrait downscale", 1080, 1920, 720, 405, 720},
		{"Square downscale", 1440, 1440, 720, 720, 720},
		{"Extreme aspect ratio clamps to 1", 10000, 10, 720, 720, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := boundedDimensions(tt.width, tt.height, tt.max)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("boundedDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, tt.max, w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestBoundNoUpscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))

	bounded := Bound(img, 720)
	if bounded != img {
		t.Error("Bound should return the original image when already within limits")
	}
}

func TestBoundDownscalesLongestSide(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1440, 900))

	bounded := Bound(img, 720)
	b := bounded.Bounds()
	if b.Dx() != 720 {
		t.Errorf("width = %d, want 720", b.Dx())
	}
	if b.Dy() != 450 {
		t.Errorf("height = %d, want 450", b.Dy())
	}
}

func TestLoadBoundedPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screen_test.png")

	img := image.NewRGBA(image.Rect(0, 0, 1600, 800))
	for y := 0; y < 800; y += 100 {
		for x := 0; x < 1600; x += 100 {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	data, err := LoadBoundedPNG(path, 720)
	if err != nil {
		t.Fatalf("LoadBoundedPNG() error: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}

	b := decoded.Bounds()
	if b.Dx() != 720 || b.Dy() != 360 {
		t.Errorf("bounded size = %dx%d, want 720x360", b.Dx(), b.Dy())
	}
}

func TestLoadBoundedPNGMissingFile(t *testing.T) {
	_, err := LoadBoundedPNG(filepath.Join(t.TempDir(), "absent.png"), 720)
	if err == nil {
		t.Error("expected error for missing file")
	}
}
