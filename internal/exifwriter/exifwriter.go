// Package exifwriter persists derived descriptions into image metadata by
// shelling out to the external exiftool binary.
package exifwriter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// ExifTool writes EXIF fields with the exiftool CLI. The write overwrites
// the target file in place; no backup copy is retained.
type ExifTool struct{}

// NewExifTool returns an exiftool-backed metadata writer.
func NewExifTool() *ExifTool {
	return &ExifTool{}
}

// CheckExifToolAvailable checks if exiftool is available in the system PATH.
// Call at startup to fail fast before the batch loop begins.
func CheckExifToolAvailable() error {
	path, err := exec.LookPath("exiftool")
	if err != nil {
		return fmt.Errorf("exiftool not found in PATH: metadata writes are unavailable. Install with: brew install exiftool (macOS) or apt install libimage-exiftool-perl (Linux)")
	}
	log.Debug().Str("path", path).Msg("exiftool found")
	return nil
}

// Write sets the human-readable description field and the raw-text comment
// field on the image at path, overwriting the original file.
func (e *ExifTool) Write(ctx context.Context, path, description, rawText string) error {
	cmd := exec.CommandContext(ctx, "exiftool",
		fmt.Sprintf("-EXIF:ImageDescription=%s", description),
		fmt.Sprintf("-EXIF:UserComment=%s", rawText),
		"-overwrite_original",
		path,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("exiftool failed: %w: %s", err, stderr.String())
	}

	log.Debug().Str("path", path).Msg("Metadata written (original file overwritten)")
	return nil
}
