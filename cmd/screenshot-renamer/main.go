package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/screenshot-renamer/internal/apply"
	"github.com/fpang/screenshot-renamer/internal/audit"
	"github.com/fpang/screenshot-renamer/internal/chat"
	"github.com/fpang/screenshot-renamer/internal/cli"
	"github.com/fpang/screenshot-renamer/internal/exifwriter"
	"github.com/fpang/screenshot-renamer/internal/logging"
	"github.com/fpang/screenshot-renamer/internal/ocr"
	"github.com/fpang/screenshot-renamer/internal/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	dryRunFlag   bool
	unitTestFlag bool
	promptFlag   string
	modelFlag    string
	pickFlag     bool
	auditFlag    bool
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "screenshot-renamer [directory]",
	Short: "AI-powered renaming for screenshot files",
	Long: `Screenshot Renamer scans a directory for screenshot PNGs, extracts their
on-screen text with OCR, asks Gemini to describe each image, and renames
every file to a short descriptive name of the form
screenshot_{date}-{description}.png. The description and raw OCR text are
also embedded into the renamed file's EXIF metadata.

The directory defaults to ~/Desktop when no argument is given.

Examples:
  screenshot-renamer                        # Rename screenshots on the desktop
  screenshot-renamer ~/Pictures/captures    # Rename screenshots in a folder
  screenshot-renamer -n                     # Dry run: preview without renaming
  screenshot-renamer --pick                 # Choose the folder in a native dialog
  screenshot-renamer -p "What app is shown?" # Steer the description
  screenshot-renamer -m gemini-2.5-flash    # Use a different model`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMain,
}

func init() {
	rootCmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "Preview renames without touching any files")
	rootCmd.Flags().BoolVarP(&unitTestFlag, "unit-test", "t", false, "Run a single trivial model query and exit")
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Custom instruction for the image description (e.g., 'What app is shown?')")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", chat.GetModelName(), "Gemini model to use (e.g., gemini-3-flash-preview, gemini-2.5-pro)")
	rootCmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose the target directory with a native folder dialog")
	rootCmd.Flags().BoolVar(&auditFlag, "audit", false, "Write a compressed per-run journal to ~/.screenshot-renamer/runs")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	ctx := context.Background()
	session := cli.InitSession(ctx, modelFlag)

	if unitTestFlag {
		answer, err := session.UnitTest(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("unit test query failed")
		}
		fmt.Printf("Unit test response: %s\n", answer)
		return
	}

	dirPath := resolveDirectory(args)
	dirPath = cli.ValidateAndResolveDirectory(dirPath)

	if err := ocr.CheckTesseractAvailable(); err != nil {
		log.Fatal().Err(err).Msg("tesseract is required for text extraction")
	}

	mode := apply.ModeApply
	if dryRunFlag {
		mode = apply.ModeDryRun
	}

	comps := pipeline.Components{
		OCR:         ocr.NewTesseract(),
		Describer:   session,
		Namer:       session,
		Instruction: promptFlag,
		Reclaimer:   session,
	}

	// Metadata is only written on a real run, so the exiftool dependency is
	// only enforced then.
	if mode == apply.ModeApply {
		if err := exifwriter.CheckExifToolAvailable(); err != nil {
			log.Fatal().Err(err).Msg("exiftool is required to embed metadata")
		}
		comps.Metadata = exifwriter.NewExifTool()
	}

	if auditFlag {
		journal, err := audit.Open(session.RunID())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open audit journal")
		}
		defer func() {
			if err := journal.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close audit journal")
			}
		}()
		comps.Auditor = journal
	}

	orchestrator := pipeline.New(comps)
	outcomes, err := orchestrator.Run(ctx, dirPath, mode)
	if err != nil {
		log.Fatal().Err(err).Str("path", dirPath).Msg("batch failed")
	}

	// Per-item failures are contained at the item boundary and already
	// logged with their stage; they do not change the exit code.
	var failed int
	for _, outcome := range outcomes {
		if outcome.Failed() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("\nDone: %d of %d files processed, %d failed\n", len(outcomes)-failed, len(outcomes), failed)
		return
	}
	fmt.Printf("\nDone: %d of %d files processed\n", len(outcomes), len(outcomes))
}

// resolveDirectory picks the target directory from, in order, the --pick
// dialog, the positional argument, or the desktop default.
func resolveDirectory(args []string) string {
	if pickFlag {
		return cli.PickDirectory()
	}
	if len(args) > 0 {
		return args[0]
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve home directory for the default desktop path")
	}
	return filepath.Join(home, "Desktop")
}
