// Package selector scans a directory for screenshot candidates eligible for
// renaming. Only top-level entries are considered; screenshots land in a flat
// directory (typically the desktop), so there is nothing to recurse into.
package selector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

const (
	// CandidatePrefix is the case-folded basename prefix marking
	// screenshot-style files (macOS names them "Screenshot ..." or
	// "Screen Shot ...").
	CandidatePrefix = "screen"

	// CandidateExtension is the single supported image extension.
	// Supporting another format is a configuration change here, not a
	// pipeline change.
	CandidateExtension = ".png"
)

// ErrNoCandidates is returned when a directory contains no eligible files.
// This is fatal for the run: there is no partial batch to process.
var ErrNoCandidates = errors.New("no screenshot candidates found in directory")

// dateTokenPattern matches the YYYY-MM-DD token embedded in macOS screenshot
// filenames.
var dateTokenPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Candidate is a file selected as eligible for processing. It is created by
// Select and read-only afterward; its identity is the filesystem path, which
// becomes invalid once the applier renames the file.
type Candidate struct {
	// Path is the full path to the file.
	Path string

	// Name is the original basename.
	Name string

	// LowerName is the case-folded basename. The target filesystem is
	// assumed case-insensitive, so all naming decisions use this form.
	LowerName string

	// DateToken is the YYYY-MM-DD token recovered from the filename, or
	// from EXIF when the filename carries none. Empty when neither source
	// has a date; a missing date never drops the candidate.
	DateToken string
}

// Select scans dirPath and returns the eligible candidates in filesystem
// enumeration order. Ordering policy is applied later by the pipeline.
// Returns ErrNoCandidates when nothing matches.
func Select(dirPath string) ([]*Candidate, error) {
	log.Info().Str("path", dirPath).Msg("Scanning directory for screenshot candidates")

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dirPath, err)
	}

	var candidates []*Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, CandidatePrefix) {
			continue
		}
		if filepath.Ext(lower) != CandidateExtension {
			continue
		}

		path := filepath.Join(dirPath, name)
		candidates = append(candidates, &Candidate{
			Path:      path,
			Name:      name,
			LowerName: lower,
			DateToken: dateToken(path, name),
		})
	}

	if len(candidates) == 0 {
		log.Warn().Str("path", dirPath).Msg("No screenshot candidates found")
		return nil, ErrNoCandidates
	}

	log.Info().
		Int("candidates", len(candidates)).
		Str("path", dirPath).
		Msg("Directory scan complete")

	return candidates, nil
}

// dateToken recovers the YYYY-MM-DD token for a candidate. The filename
// pattern wins; when absent, the file's EXIF dates are tried before giving
// up with an empty token.
func dateToken(path, name string) string {
	if m := dateTokenPattern.FindString(name); m != "" {
		return m
	}
	return exifDateToken(path)
}

// exifDateToken reads the capture date from the file's EXIF block.
// Fallback chain: DateTimeOriginal > CreateDate > ModifyDate.
// PNG screenshots often carry no EXIF at all; that is not an error.
func exifDateToken(path string) string {
	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Cannot open file for EXIF date fallback")
		return ""
	}
	defer f.Close()

	exifData, err := imagemeta.Decode(f)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("No EXIF metadata for date fallback")
		return ""
	}

	const layout = "2006-01-02"
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		return exifData.DateTimeOriginal().Format(layout)
	case !exifData.CreateDate().IsZero():
		return exifData.CreateDate().Format(layout)
	case !exifData.ModifyDate().IsZero():
		return exifData.ModifyDate().Format(layout)
	}
	return ""
}
