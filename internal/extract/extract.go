// Package extract obtains the two signals a rename is derived from: the
// text content of a screenshot and a natural-language description of its
// visual content. The two engines are independent collaborators; OCR may
// legitimately find nothing, the description must not be empty.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/screenshot-renamer/internal/metrics"
	"github.com/fpang/screenshot-renamer/internal/ocr"
	"github.com/fpang/screenshot-renamer/internal/selector"
	"github.com/rs/zerolog/log"
)

// Describer generates a natural-language description of an image. An empty
// instruction requests free captioning.
type Describer interface {
	Describe(ctx context.Context, path, instruction string) (string, error)
}

// Result holds the extracted signals for one candidate. It is owned by one
// pipeline iteration and discarded after the synthesizer consumes it; results
// are never cached or retained across items.
type Result struct {
	// Text is the OCR output. Empty means "no text detected".
	Text string

	// Description is the AI-generated description. Non-empty on success.
	Description string

	// Durations are surfaced for diagnostics only; nothing branches on them.
	TextDuration        time.Duration
	DescriptionDuration time.Duration
}

// Extract runs OCR and description generation against the candidate,
// timing both calls. The instruction steers the description when non-empty.
func Extract(ctx context.Context, engine ocr.Engine, describer Describer, cand *selector.Candidate, instruction string) (*Result, error) {
	result := &Result{}

	start := time.Now()
	text, err := engine.ExtractText(ctx, cand.Path)
	result.TextDuration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed for %s: %w", cand.Name, err)
	}
	result.Text = text

	log.Debug().
		Str("file", cand.Name).
		Int("text_length", len(text)).
		Dur("duration", result.TextDuration).
		Msg("OCR stage complete")

	start = time.Now()
	description, err := describer.Describe(ctx, cand.Path, instruction)
	result.DescriptionDuration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("description failed for %s: %w", cand.Name, err)
	}
	result.Description = description

	log.Debug().
		Str("file", cand.Name).
		Int("description_length", len(description)).
		Dur("duration", result.DescriptionDuration).
		Msg("Description stage complete")

	metrics.New("ScreenshotRenamer").
		Dimension("Stage", "extract").
		Metric("OcrMs", float64(result.TextDuration.Milliseconds()), metrics.UnitMilliseconds).
		Metric("DescriptionMs", float64(result.DescriptionDuration.Milliseconds()), metrics.UnitMilliseconds).
		Property("filename", cand.Name).
		Flush()

	return result, nil
}
