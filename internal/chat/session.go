// Package chat owns the long-lived Gemini session shared by every pipeline
// item. The session is constructed once before the batch loop, passed
// explicitly into each stage, and never reconstructed; batch processing is
// strictly sequential, so the session is never invoked concurrently.
package chat

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fpang/screenshot-renamer/internal/assets"
	"github.com/fpang/screenshot-renamer/internal/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ErrEmptyDescription is returned when the description model returns no
// content for an image. This aborts the item, not the batch.
var ErrEmptyDescription = errors.New("description generation returned an empty response")

// unitTestPrompt is the trivial connectivity check sent in unit-test mode.
const unitTestPrompt = "What is 2+2? Reply with just the number."

// Session is the shared handle to the description and text-generation engine.
// Construct it once per run with NewSession and pass it by reference; tests
// substitute fakes for the narrow interfaces the pipeline consumes.
type Session struct {
	client *genai.Client
	model  string
	runID  string

	// payload holds the most recent bounded image upload so Reclaim can
	// drop it between items.
	payload []byte
}

// NewSession creates a Gemini-backed session. The model may be empty, in
// which case the RENAMER_MODEL environment variable or the default applies.
func NewSession(ctx context.Context, apiKey, model string) (*Session, error) {
	if model == "" {
		model = GetModelName()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s := &Session{
		client: client,
		model:  model,
		runID:  uuid.NewString(),
	}

	log.Info().
		Str("model", model).
		Str("run_id", s.runID).
		Msg("Gemini session initialized")

	return s, nil
}

// Client exposes the underlying genai client for API key validation.
func (s *Session) Client() *genai.Client {
	return s.client
}

// Model returns the model ID this session generates with.
func (s *Session) Model() string {
	return s.model
}

// RunID returns the identifier stamped on this session's audit records.
func (s *Session) RunID() string {
	return s.runID
}

// Describe generates a natural-language description of the image at path.
// The image is bounded to imaging.DefaultMaxDimension on its longest side
// before upload. An empty instruction means free captioning; a non-empty
// instruction steers the description toward answering a specific question.
// Returns ErrEmptyDescription when the model produces no content.
func (s *Session) Describe(ctx context.Context, path, instruction string) (string, error) {
	data, err := imaging.LoadBoundedPNG(path, imaging.DefaultMaxDimension)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image for description: %w", err)
	}
	s.payload = data

	prompt := instruction
	if prompt == "" {
		prompt = assets.DescribeDefaultPrompt
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: imaging.PNGMIMEType, Data: data}},
		{Text: prompt},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	log.Debug().
		Str("model", s.model).
		Str("path", path).
		Int("payload_bytes", len(data)).
		Bool("custom_instruction", instruction != "").
		Msg("Starting Gemini API call for image description")

	callStart := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate description from Gemini")
		return "", fmt.Errorf("failed to generate description: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyDescription
	}

	description := strings.TrimSpace(resp.Text())
	log.Debug().
		Int("response_length", len(description)).
		Dur("duration", duration).
		Msg("Gemini API response received for image description")

	if description == "" {
		return "", ErrEmptyDescription
	}

	return description, nil
}

// GenerateText sends a text-only prompt and returns the model's reply.
// The reply has no guaranteed format; callers are expected to sanitize it.
func (s *Session) GenerateText(ctx context.Context, prompt string) (string, error) {
	log.Debug().
		Str("model", s.model).
		Int("prompt_length", len(prompt)).
		Msg("Starting Gemini API call for text generation")

	callStart := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate text from Gemini")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	response := resp.Text()
	log.Debug().
		Int("response_length", len(response)).
		Dur("duration", duration).
		Msg("Gemini API response received for text generation")

	return response, nil
}

// Reclaim drops transient per-item buffers and instructs the runtime to
// return freed memory to the OS. Called by the pipeline between items; each
// item uploads a multi-megabyte image payload and the loop is long-running.
func (s *Session) Reclaim() {
	s.payload = nil
	debug.FreeOSMemory()
	log.Debug().Msg("Session memory reclaimed")
}

// UnitTest bypasses the pipeline and exercises the text generator with a
// trivial arithmetic prompt to validate connectivity end to end.
func (s *Session) UnitTest(ctx context.Context) (string, error) {
	reply, err := s.GenerateText(ctx, unitTestPrompt)
	if err != nil {
		return "", fmt.Errorf("unit test call failed: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
