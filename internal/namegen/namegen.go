// Package namegen synthesizes a sanitized, length-bounded target filename
// from the signals extracted from a screenshot. The generator call is free
// to be non-deterministic; the sanitization chain that follows it is pure.
package namegen

import (
	"context"
	"fmt"

	"github.com/fpang/screenshot-renamer/internal/assets"
	"github.com/rs/zerolog/log"
)

const (
	// TargetPrefix is the fixed literal every synthesized name starts with.
	TargetPrefix = "screenshot_"

	// TargetExtension is the fixed extension appended to every name.
	TargetExtension = ".png"

	// PlaceholderDate is substituted when neither the original filename
	// nor EXIF carries a date token. A missing date never fails the item.
	PlaceholderDate = "unknown-date"
)

// Generator produces free-form text from a prompt. Replies have no
// guaranteed format; Synthesize keeps only the first line.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Synthesize converts the extracted signals plus the candidate's date token
// into the final target filename:
//
//	screenshot_<date>-<sanitized stem>.png
//
// The stem honors the length and charset invariants unconditionally.
func Synthesize(ctx context.Context, gen Generator, ocrText, description, dateToken string) (string, error) {
	prompt := assets.RenderFilenameRequest(ocrText, description)

	response, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("filename generation failed: %w", err)
	}

	stem := Sanitize(response)
	if stem == "" {
		return "", fmt.Errorf("filename generation produced no usable characters (raw length %d)", len(response))
	}

	name := Compose(stem, dateToken)

	log.Debug().
		Str("stem", stem).
		Str("date_token", dateToken).
		Str("target", name).
		Msg("Filename synthesized")

	return name, nil
}

// Compose builds the final filename from a sanitized stem and a date token.
// An empty token becomes the placeholder.
func Compose(stem, dateToken string) string {
	if dateToken == "" {
		dateToken = PlaceholderDate
	}
	return TargetPrefix + dateToken + "-" + stem + TargetExtension
}
