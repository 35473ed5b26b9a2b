// Package pipeline owns the batch control loop: ordering policy, progress
// reporting, the resource-reclamation checkpoint between items, and the
// continuation-on-error policy. Processing is single-threaded and strictly
// sequential; the shared inference session is not safe under concurrent
// invocation and the wall clock is dominated by one saturated device anyway.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/fpang/screenshot-renamer/internal/apply"
	"github.com/fpang/screenshot-renamer/internal/extract"
	"github.com/fpang/screenshot-renamer/internal/metrics"
	"github.com/fpang/screenshot-renamer/internal/namegen"
	"github.com/fpang/screenshot-renamer/internal/ocr"
	"github.com/fpang/screenshot-renamer/internal/selector"
	"github.com/rs/zerolog/log"
)

// previewLimit is how many batch items are listed before the "+N more"
// summary. Observational only.
const previewLimit = 9

// Reclaimer releases transient memory between items. Each item may allocate
// large buffers in the shared session and the loop is long-running.
type Reclaimer interface {
	Reclaim()
}

// Auditor records one outcome per candidate. Optional.
type Auditor interface {
	Append(apply.Outcome)
}

// Components bundles the collaborators every pipeline stage needs. All
// fields except Instruction, Reclaimer, and Auditor are required; they are
// interfaces so tests substitute fakes.
type Components struct {
	// OCR extracts text from a screenshot.
	OCR ocr.Engine

	// Describer generates a natural-language description via the shared
	// session handle.
	Describer extract.Describer

	// Namer is the free-text generator that proposes filenames.
	Namer namegen.Generator

	// Metadata persists description and raw text into the renamed file.
	Metadata apply.MetadataWriter

	// Instruction optionally steers the description toward answering a
	// specific question. Empty means free captioning.
	Instruction string

	// Reclaimer is invoked between items. Nil skips reclamation (tests).
	Reclaimer Reclaimer

	// Auditor records outcomes. Nil disables the journal.
	Auditor Auditor
}

// Orchestrator drives the per-item processing loop over a batch.
type Orchestrator struct {
	comps Components
	state State

	// shuffle randomizes the dry-run preview order. Swapped in tests to
	// pin the order down.
	shuffle func(n int, swap func(i, j int))
}

// New creates an Orchestrator around the given components.
func New(comps Components) *Orchestrator {
	return &Orchestrator{
		comps:   comps,
		state:   StateIdle,
		shuffle: rand.Shuffle,
	}
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) setState(s State) {
	log.Debug().
		Str("from", o.state.String()).
		Str("to", s.String()).
		Msg("Pipeline state transition")
	o.state = s
}

// Run processes every eligible candidate in dirPath. Per-item failures are
// logged and the loop continues; only selection errors propagate. The
// returned outcomes hold one audit record per processed candidate.
func (o *Orchestrator) Run(ctx context.Context, dirPath string, mode apply.Mode) ([]apply.Outcome, error) {
	o.setState(StateSelecting)
	candidates, err := selector.Select(dirPath)
	if err != nil {
		o.setState(StateAborted)
		return nil, err
	}

	o.order(candidates, mode)
	o.printPreview(candidates)

	outcomes := make([]apply.Outcome, 0, len(candidates))
	for i, cand := range candidates {
		fmt.Printf("\nProcessing image %d of %d\n", i+1, len(candidates))

		outcome := o.processItem(ctx, cand, mode)
		outcomes = append(outcomes, outcome)
		if o.comps.Auditor != nil {
			o.comps.Auditor.Append(outcome)
		}

		o.setState(StateReclaiming)
		if o.comps.Reclaimer != nil {
			o.comps.Reclaimer.Reclaim()
		}
	}

	o.setState(StateDone)

	metrics.New("ScreenshotRenamer").
		Dimension("Mode", mode.String()).
		Metric("BatchSize", float64(len(candidates)), metrics.UnitCount).
		Flush()

	return outcomes, nil
}

// order applies the mode-specific ordering policy. Dry runs are shuffled so
// repeated previews surface a different sampling of the batch for manual
// spot-checking; real runs process ascending by filename length, shortest
// first, with an alphabetical tiebreak. The asymmetry is deliberate.
func (o *Orchestrator) order(candidates []*selector.Candidate, mode apply.Mode) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LowerName < candidates[j].LowerName
	})

	if mode == apply.ModeDryRun {
		o.shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		return
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].LowerName) < len(candidates[j].LowerName)
	})
}

// printPreview lists the first few items of the batch before processing
// begins.
func (o *Orchestrator) printPreview(candidates []*selector.Candidate) {
	for i, cand := range candidates {
		if i >= previewLimit {
			fmt.Printf("... plus %d more files\n", len(candidates)-previewLimit)
			break
		}
		fmt.Printf("%d: %s\n", i+1, cand.LowerName)
	}
}

// processItem runs the per-item stages for one candidate. All errors are
// captured in the outcome; none propagate past this boundary.
func (o *Orchestrator) processItem(ctx context.Context, cand *selector.Candidate, mode apply.Mode) apply.Outcome {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Processing image: %s\n", cand.Name)

	o.setState(StateExtracting)
	result, err := extract.Extract(ctx, o.comps.OCR, o.comps.Describer, cand, o.comps.Instruction)
	if err != nil {
		return o.itemFailed(cand, StateExtracting, mode, err)
	}

	fmt.Printf("\nOCR Results:\n%s\n", formatPreview(result.Text))
	fmt.Printf("Time taken for OCR: %.2f seconds\n", result.TextDuration.Seconds())
	fmt.Printf("\nCaption Results:\n%s\n", formatPreview(result.Description))
	fmt.Printf("Time taken for caption generation: %.2f seconds\n", result.DescriptionDuration.Seconds())

	o.setState(StateSynthesizing)
	targetName, err := namegen.Synthesize(ctx, o.comps.Namer, result.Text, result.Description, cand.DateToken)
	if err != nil {
		return o.itemFailed(cand, StateSynthesizing, mode, err)
	}
	fmt.Printf("\nAI Filename Result: %s\n", targetName)

	o.setState(StateApplying)
	outcome := apply.Apply(ctx, o.comps.Metadata, cand, targetName, result.Description, result.Text, mode)
	if outcome.Err != nil {
		log.Error().Err(outcome.Err).
			Str("file", cand.Name).
			Str("stage", StateApplying.String()).
			Msg("Item transaction incomplete; continuing with batch")
	}
	return outcome
}

// itemFailed records a per-item failure with the stage reached and returns
// the failed outcome. The batch continues.
func (o *Orchestrator) itemFailed(cand *selector.Candidate, stage State, mode apply.Mode, err error) apply.Outcome {
	log.Error().Err(err).
		Str("file", cand.Name).
		Str("stage", stage.String()).
		Msg("Item processing failed; continuing with batch")

	return apply.Outcome{
		OldPath: cand.Path,
		NewPath: cand.Path,
		Mode:    mode,
		Err:     fmt.Errorf("%s: %w", stage, err),
	}
}

// formatPreview trims text to a short console preview: at most 2 lines of
// at most 80 characters, broken on word boundaries.
func formatPreview(text string) string {
	const (
		maxLines   = 2
		lineLength = 80
	)

	words := strings.Fields(text)
	var lines []string
	var current string

	for _, word := range words {
		if len(current)+len(word)+1 > lineLength {
			lines = append(lines, current)
			current = word
			if len(lines) == maxLines {
				break
			}
		} else if current == "" {
			current = word
		} else {
			current += " " + word
		}
	}

	if current != "" && len(lines) < maxLines {
		lines = append(lines, current)
	}

	return strings.Join(lines, "\n")
}
