package cli

import (
	"context"

	"github.com/fpang/screenshot-renamer/internal/auth"
	"github.com/fpang/screenshot-renamer/internal/chat"
	"github.com/rs/zerolog/log"
)

// InitSession creates and validates an inference session for the given
// model. Returns the session ready for use, or exits fatally on failure.
func InitSession(ctx context.Context, model string) *chat.Session {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}

	session, err := chat.NewSession(ctx, apiKey, model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	log.Info().Msg("connection successful - Gemini client initialized")

	if err := auth.ValidateAPIKey(ctx, session.Client(), session.Model()); err != nil {
		HandleValidationError(err)
	}

	log.Info().Msg("API key validation complete - ready for operations")

	return session
}
