package repositories

import (
	"context"

	"github.com/studyai/handsfree/domain/entities"
)

// GenerationMode selects the request/response text-completion behavior
type GenerationMode string

const (
	ModeStandard GenerationMode = "standard"
	ModeLite     GenerationMode = "lite"
	ModeThinking GenerationMode = "thinking"
	ModeSearch   GenerationMode = "search"
)

// TextResult is a completed generation with optional citation sources
type TextResult struct {
	Text    string
	Sources []entities.Source
}

// TextGenerator abstracts the request/response text-completion calls used
// outside hands-free mode
type TextGenerator interface {
	// Generate answers a prompt against the conversation history, applying
	// the personalization from settings. Search mode returns citation
	// sources alongside the answer.
	Generate(ctx context.Context, mode GenerationMode, prompt string, history []entities.Message, settings entities.Settings) (*TextResult, error)

	// Synthesize renders text to raw PCM audio with the given prebuilt
	// voice. This is the non-streaming TTS call.
	Synthesize(ctx context.Context, text string, voice string) ([]byte, error)
}
