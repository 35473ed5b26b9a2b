// Package audit records transaction outcomes as a gzip-compressed JSONL
// journal, one file per run. The journal is append-only diagnostics; the
// pipeline never reads it back.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/screenshot-renamer/internal/apply"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

const journalDir = ".screenshot-renamer"

// Record is one journal line.
type Record struct {
	Timestamp       time.Time `json:"timestamp"`
	RunID           string    `json:"runId"`
	OldPath         string    `json:"oldPath"`
	NewPath         string    `json:"newPath"`
	Mode            string    `json:"mode"`
	MetadataWritten bool      `json:"metadataWritten"`
	Error           string    `json:"error,omitempty"`
}

// Journal writes outcome records for one run.
type Journal struct {
	runID string
	file  *os.File
	gz    *gzip.Writer
	enc   *json.Encoder
}

// Open creates the journal file for the given run under
// ~/.screenshot-renamer/runs/<runID>.jsonl.gz.
func Open(runID string) (*Journal, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, journalDir, "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(dir, runID+".jsonl.gz")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal file: %w", err)
	}

	gz := gzip.NewWriter(f)
	j := &Journal{
		runID: runID,
		file:  f,
		gz:    gz,
		enc:   json.NewEncoder(gz),
	}

	log.Info().Str("path", path).Msg("Audit journal opened")
	return j, nil
}

// Append writes one outcome record. Journal failures are logged, never
// surfaced: audit output must not affect batch processing.
func (j *Journal) Append(outcome apply.Outcome) {
	rec := Record{
		Timestamp:       time.Now().UTC(),
		RunID:           j.runID,
		OldPath:         outcome.OldPath,
		NewPath:         outcome.NewPath,
		Mode:            outcome.Mode.String(),
		MetadataWritten: outcome.MetadataWritten,
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}

	if err := j.enc.Encode(rec); err != nil {
		log.Warn().Err(err).Msg("Failed to append audit record")
	}
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	if err := j.gz.Close(); err != nil {
		j.file.Close()
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	return j.file.Close()
}
