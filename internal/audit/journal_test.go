package audit

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/screenshot-renamer/internal/apply"
	"github.com/klauspost/compress/gzip"
)

func TestJournalRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	j, err := Open("test-run-123")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	j.Append(apply.Outcome{
		OldPath:         "/desk/screen_a.png",
		NewPath:         "/desk/screenshot_2024-03-01-login.png",
		MetadataWritten: true,
		Mode:            apply.ModeApply,
	})
	j.Append(apply.Outcome{
		OldPath: "/desk/screen_b.png",
		NewPath: "/desk/screen_b.png",
		Mode:    apply.ModeApply,
		Err:     errors.New("rename failed: permission denied"),
	})

	if err := j.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	path := filepath.Join(home, ".screenshot-renamer", "runs", "test-run-123.jsonl.gz")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("journal file missing: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("journal is not valid gzip: %v", err)
	}
	dec := json.NewDecoder(gz)

	var records []Record
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("failed to decode record: %v", err)
		}
		records = append(records, rec)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].RunID != "test-run-123" {
		t.Errorf("RunID = %q", records[0].RunID)
	}
	if !records[0].MetadataWritten || records[0].Mode != "applied" {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].Error == "" {
		t.Error("record 1 missing error text")
	}
}
