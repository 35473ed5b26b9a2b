// Package ocr extracts machine-readable text from screenshot images.
//
// Text extraction shells out to the external tesseract binary, keeping the
// heavy OCR engine outside the process the same way video work shells out
// to ffmpeg elsewhere in this codebase's lineage.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Engine extracts text from an image file. An empty string is a valid
// result meaning "no text detected", never an error.
type Engine interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Tesseract runs the tesseract CLI against image files.
type Tesseract struct {
	// Language is the tesseract language pack to use (default "eng").
	Language string
}

// NewTesseract returns a Tesseract engine with the default language.
func NewTesseract() *Tesseract {
	return &Tesseract{Language: "eng"}
}

// CheckTesseractAvailable checks if tesseract is available in the system PATH.
// Call at startup to fail fast before the batch loop begins.
func CheckTesseractAvailable() error {
	path, err := exec.LookPath("tesseract")
	if err != nil {
		return fmt.Errorf("tesseract not found in PATH: text extraction is unavailable. Install with: brew install tesseract (macOS) or apt install tesseract-ocr (Linux)")
	}
	log.Debug().Str("path", path).Msg("tesseract found")
	return nil
}

// ExtractText runs tesseract against the image and returns all recognized
// text. Returns an empty string (no error) when the image contains no text.
func (t *Tesseract) ExtractText(ctx context.Context, path string) (string, error) {
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}

	// tesseract <image> stdout -l eng
	cmd := exec.CommandContext(ctx, "tesseract", path, "stdout", "-l", lang)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, stderr.String())
	}

	text := strings.TrimSpace(stdout.String())
	log.Debug().
		Str("path", path).
		Int("text_length", len(text)).
		Msg("OCR extraction complete")

	return text, nil
}
