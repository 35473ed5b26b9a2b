package chat

import "os"

// Gemini Model IDs
//
// | Model Name               | API Model ID            | Use Case                      |
// |--------------------------|-------------------------|-------------------------------|
// | Gemini 3 Flash (Preview) | gemini-3-flash-preview  | Best for speed + intelligence |
// | Gemini 2.5 Pro           | gemini-2.5-pro          | Stable, high-reasoning tasks  |
// | Gemini 2.5 Flash         | gemini-2.5-flash        | Stable, balanced performance  |
// | Gemini 2.5 Flash-Lite    | gemini-2.5-flash-lite   | High-throughput, lowest cost  |
const (
	// ModelGemini3FlashPreview is best for speed + intelligence.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"

	// ModelGemini25Pro is stable, for high-reasoning tasks.
	ModelGemini25Pro = "gemini-2.5-pro"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashLite is for high-throughput, lowest cost.
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"
)

// DefaultModelName is the default Gemini model to use.
// Can be overridden via the RENAMER_MODEL environment variable.
const DefaultModelName = ModelGemini3FlashPreview

// GetModelName returns the Gemini model to use, resolved from:
//  1. RENAMER_MODEL environment variable (if set)
//  2. Default: gemini-3-flash-preview
func GetModelName() string {
	if env := os.Getenv("RENAMER_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
