package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/fpang/screenshot-renamer/internal/apply"
	"github.com/fpang/screenshot-renamer/internal/chat"
	"github.com/fpang/screenshot-renamer/internal/selector"
)

type fakeOCR struct {
	calls []string // paths in processing order
}

func (f *fakeOCR) ExtractText(ctx context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	return "some text", nil
}

type fakeDescriber struct {
	failFor string // basename that triggers ErrEmptyDescription
}

func (f *fakeDescriber) Describe(ctx context.Context, path, instruction string) (string, error) {
	if f.failFor != "" && filepath.Base(path) == f.failFor {
		return "", chat.ErrEmptyDescription
	}
	return "a window with " + filepath.Base(path), nil
}

type fakeNamer struct {
	n int
}

func (f *fakeNamer) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.n++
	return fmt.Sprintf("generated name %d", f.n), nil
}

type fakeWriter struct {
	writes []string
}

func (f *fakeWriter) Write(ctx context.Context, path, description, rawText string) error {
	f.writes = append(f.writes, path)
	return nil
}

type fakeReclaimer struct {
	calls int
}

func (f *fakeReclaimer) Reclaim() { f.calls++ }

type recordingAuditor struct {
	records []apply.Outcome
}

func (r *recordingAuditor) Append(o apply.Outcome) { r.records = append(r.records, o) }

func writeScreens(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestOrchestrator(ocrEngine *fakeOCR, describer *fakeDescriber, writer *fakeWriter, reclaimer *fakeReclaimer) *Orchestrator {
	return New(Components{
		OCR:       ocrEngine,
		Describer: describer,
		Namer:     &fakeNamer{},
		Metadata:  writer,
		Reclaimer: reclaimer,
	})
}

func TestRunRealRunOrderedByNameLength(t *testing.T) {
	dir := t.TempDir()
	writeScreens(t, dir,
		"screenshot_with_a_long_name.png",
		"screen_a.png",
		"screen_midsize.png",
	)

	ocrEngine := &fakeOCR{}
	o := newTestOrchestrator(ocrEngine, &fakeDescriber{}, &fakeWriter{}, &fakeReclaimer{})

	outcomes, err := o.Run(context.Background(), dir, apply.ModeApply)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}

	// Strictly non-decreasing basename length.
	for i := 1; i < len(ocrEngine.calls); i++ {
		prev := len(filepath.Base(ocrEngine.calls[i-1]))
		cur := len(filepath.Base(ocrEngine.calls[i]))
		if cur < prev {
			t.Errorf("processing order not ascending by length: %v", ocrEngine.calls)
		}
	}
	if filepath.Base(ocrEngine.calls[0]) != "screen_a.png" {
		t.Errorf("first item = %s, want screen_a.png", ocrEngine.calls[0])
	}
}

func TestRunDryRunPurity(t *testing.T) {
	dir := t.TempDir()
	writeScreens(t, dir, "screen_a.png", "screen_bb.png", "screen_ccc.png")

	before, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeOCR{}, &fakeDescriber{}, writer, &fakeReclaimer{})

	outcomes, err := o.Run(context.Background(), dir, apply.ModeDryRun)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	after, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != len(after) {
		t.Fatalf("directory contents changed: %d -> %d entries", len(before), len(after))
	}
	var beforeNames, afterNames []string
	for _, e := range before {
		beforeNames = append(beforeNames, e.Name())
	}
	for _, e := range after {
		afterNames = append(afterNames, e.Name())
	}
	sort.Strings(beforeNames)
	sort.Strings(afterNames)
	for i := range beforeNames {
		if beforeNames[i] != afterNames[i] {
			t.Errorf("entry changed: %q -> %q", beforeNames[i], afterNames[i])
		}
	}

	if len(writer.writes) != 0 {
		t.Error("dry run invoked the metadata writer")
	}
	for _, out := range outcomes {
		if out.Mode != apply.ModeDryRun {
			t.Errorf("outcome mode = %v", out.Mode)
		}
		if out.Err != nil {
			t.Errorf("outcome error = %v", out.Err)
		}
	}
}

func TestRunContinuesPastEmptyDescription(t *testing.T) {
	dir := t.TempDir()
	writeScreens(t, dir, "screen_a.png", "screen_bb.png", "screen_ccc.png")

	describer := &fakeDescriber{failFor: "screen_bb.png"}
	writer := &fakeWriter{}
	reclaimer := &fakeReclaimer{}
	o := newTestOrchestrator(&fakeOCR{}, describer, writer, reclaimer)

	outcomes, err := o.Run(context.Background(), dir, apply.ModeApply)
	if err != nil {
		t.Fatalf("per-item failure must not propagate, got: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}

	var failed, renamed int
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			if !errors.Is(out.Err, chat.ErrEmptyDescription) {
				t.Errorf("failure cause = %v, want ErrEmptyDescription", out.Err)
			}
			if !strings.Contains(out.Err.Error(), StateExtracting.String()) {
				t.Errorf("failure missing stage context: %v", out.Err)
			}
		} else if out.NewPath != out.OldPath {
			renamed++
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if renamed != 2 {
		t.Errorf("renamed = %d, want 2", renamed)
	}

	// Items 1 and 3 were fully processed.
	if len(writer.writes) != 2 {
		t.Errorf("metadata writes = %d, want 2", len(writer.writes))
	}
	// Reclamation ran after every item, including the failed one.
	if reclaimer.calls != 3 {
		t.Errorf("reclaim calls = %d, want 3", reclaimer.calls)
	}
	if o.State() != StateDone {
		t.Errorf("final state = %v, want done", o.State())
	}
}

func TestRunNoCandidatesIsFatal(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{}, &fakeDescriber{}, &fakeWriter{}, &fakeReclaimer{})

	_, err := o.Run(context.Background(), t.TempDir(), apply.ModeApply)
	if !errors.Is(err, selector.ErrNoCandidates) {
		t.Errorf("Run() error = %v, want ErrNoCandidates", err)
	}
	if o.State() != StateAborted {
		t.Errorf("state = %v, want aborted", o.State())
	}
}

func TestRunAuditorReceivesEveryOutcome(t *testing.T) {
	dir := t.TempDir()
	writeScreens(t, dir, "screen_a.png", "screen_bb.png")

	auditor := &recordingAuditor{}
	o := New(Components{
		OCR:       &fakeOCR{},
		Describer: &fakeDescriber{failFor: "screen_a.png"},
		Namer:     &fakeNamer{},
		Metadata:  &fakeWriter{},
		Auditor:   auditor,
	})

	outcomes, err := o.Run(context.Background(), dir, apply.ModeApply)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(auditor.records) != len(outcomes) {
		t.Errorf("auditor got %d records, want %d", len(auditor.records), len(outcomes))
	}
}

func TestFormatPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"Empty", "", ""},
		{"Short", "hello world", "hello world"},
		{
			"Wraps at eighty",
			strings.Repeat("word ", 40),
			// Two lines, each within the limit.
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatPreview(tt.text)
			lines := strings.Split(got, "\n")
			if got != "" && len(lines) > 2 {
				t.Errorf("preview has %d lines, want <= 2", len(lines))
			}
			for _, line := range lines {
				if len(line) > 80 {
					t.Errorf("line longer than 80 chars: %q", line)
				}
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("formatPreview(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestOrderDryRunShuffles(t *testing.T) {
	dir := t.TempDir()
	writeScreens(t, dir, "screen_a.png", "screen_bb.png", "screen_ccc.png", "screen_dddd.png")

	candidates, err := selector.Select(dir)
	if err != nil {
		t.Fatal(err)
	}

	o := New(Components{})
	// Pin the shuffle to a reversal so the test is deterministic; real runs
	// use math/rand.
	o.shuffle = func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}

	o.order(candidates, apply.ModeDryRun)

	if candidates[0].LowerName != "screen_dddd.png" {
		t.Errorf("shuffle hook not applied, first = %s", candidates[0].LowerName)
	}
}
