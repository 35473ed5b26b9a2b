// Package apply performs the rename-plus-annotate transaction for one
// candidate. The side-effect order is fixed: rename first, metadata second,
// because the metadata writer targets the file's new path. A committed
// rename is never rolled back when the metadata write fails; the file keeps
// its new name with partial metadata (documented limitation).
package apply

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/screenshot-renamer/internal/selector"
	"github.com/rs/zerolog/log"
)

// Mode selects dry-run or real-run behavior.
type Mode int

const (
	// ModeDryRun reports the intended old→new mapping without touching
	// the filesystem or metadata.
	ModeDryRun Mode = iota

	// ModeApply renames the file and writes metadata.
	ModeApply
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry_run"
	}
	return "applied"
}

// maxCollisionProbes bounds the numeric-suffix search when the target name
// is already taken.
const maxCollisionProbes = 100

// MetadataWriter persists the derived description and raw text into the
// file's metadata, overwriting the file in place.
type MetadataWriter interface {
	Write(ctx context.Context, path, description, rawText string) error
}

// Outcome is the audit record for one candidate's transaction.
type Outcome struct {
	OldPath         string
	NewPath         string
	MetadataWritten bool
	Mode            Mode
	Err             error
}

// Failed reports whether the transaction failed outright (rename never
// committed). A metadata-only failure is partial success, not a failure.
func (o Outcome) Failed() bool {
	return o.Err != nil && o.NewPath == o.OldPath
}

// Apply executes the transaction for one candidate. The returned Outcome is
// always populated; Err carries the first failure encountered.
func Apply(ctx context.Context, writer MetadataWriter, cand *selector.Candidate, targetName, description, rawText string, mode Mode) Outcome {
	outcome := Outcome{
		OldPath: cand.Path,
		NewPath: cand.Path,
		Mode:    mode,
	}

	dir := filepath.Dir(cand.Path)
	newPath := filepath.Join(dir, targetName)

	if mode == ModeDryRun {
		outcome.NewPath = newPath
		fmt.Printf("Dry Run: Would rename '%s' -> '%s'\n", cand.Name, targetName)
		return outcome
	}

	newPath, err := resolveCollision(newPath)
	if err != nil {
		outcome.Err = fmt.Errorf("rename failed: %w", err)
		log.Error().Err(err).Str("file", cand.Name).Msg("No collision-free target name available")
		return outcome
	}

	if err := os.Rename(cand.Path, newPath); err != nil {
		outcome.Err = fmt.Errorf("rename failed: %w", err)
		log.Error().Err(err).
			Str("old", cand.Path).
			Str("new", newPath).
			Msg("Rename failed; metadata write skipped")
		return outcome
	}
	outcome.NewPath = newPath

	if err := writer.Write(ctx, newPath, description, rawText); err != nil {
		// The rename stands; record the partial result and move on.
		outcome.Err = fmt.Errorf("metadata write failed: %w", err)
		log.Warn().Err(err).
			Str("path", newPath).
			Msg("Metadata write failed after rename; file keeps its new name")
		return outcome
	}
	outcome.MetadataWritten = true

	fmt.Printf("Renamed and updated metadata: '%s' -> '%s'\n", cand.Name, filepath.Base(newPath))
	return outcome
}

// resolveCollision returns a path that does not yet exist. When the target
// is taken, it probes stem_2, stem_3, ... The numeric suffix stays within
// the stem charset, so the name invariants hold.
func resolveCollision(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; i <= maxCollisionProbes; i++ {
		probe := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(probe); os.IsNotExist(err) {
			log.Debug().
				Str("wanted", path).
				Str("using", probe).
				Msg("Target name taken; using numeric suffix")
			return probe, nil
		}
	}
	return "", fmt.Errorf("no free name near %s after %d probes", filepath.Base(path), maxCollisionProbes)
}
