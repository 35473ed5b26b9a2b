package cli

import (
	"errors"
	"os"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// PickDirectory opens a native folder picker and returns the chosen path.
// A canceled dialog exits cleanly; picker failures exit fatally.
func PickDirectory() string {
	selected, err := zenity.SelectFile(
		zenity.Directory(),
		zenity.Title("Select screenshot folder"),
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			log.Info().Msg("Folder selection canceled")
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("Folder picker failed")
	}
	return selected
}
