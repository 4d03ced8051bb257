package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
)

// Model selection per generation mode
const (
	standardModel = "gemini-2.5-flash"
	liteModel     = "gemini-flash-lite-latest"
	thinkingModel = "gemini-2.5-pro"
	ttsModel      = "gemini-2.5-flash-preview-tts"
)

const (
	defaultTemperature = 0.7
	defaultTopP        = 0.95
	defaultTopK        = 64

	// Token budget for the thinking mode's reasoning phase
	thinkingBudget = 32768
)

// Gemini implements the TextGenerator interface using Google's Gemini API
type Gemini struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGemini creates a text generator backed by the Gemini API
func NewGemini(ctx context.Context, apiKey string, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, logger: logger}, nil
}

// Generate answers one prompt against the conversation history
func (g *Gemini) Generate(ctx context.Context, mode repositories.GenerationMode, prompt string, history []entities.Message, settings entities.Settings) (*repositories.TextResult, error) {
	contents := historyToContents(history)
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(defaultTemperature)),
		TopP:              genai.Ptr(float32(defaultTopP)),
		TopK:              genai.Ptr(float32(defaultTopK)),
		SystemInstruction: genai.NewContentFromText(settings.ChatInstruction(), genai.RoleUser),
	}

	model := standardModel
	switch mode {
	case repositories.ModeLite:
		model = liteModel
	case repositories.ModeThinking:
		model = thinkingModel
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(thinkingBudget)),
		}
	case repositories.ModeSearch:
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	response, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		g.logger.Error("Failed to generate content",
			zap.String("mode", string(mode)),
			zap.Error(err))
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(response)
	if text == "" {
		return nil, errors.New("no content generated")
	}

	result := &repositories.TextResult{
		Text:    text,
		Sources: groundingSources(response),
	}

	g.logger.Info("Generated text response",
		zap.String("mode", string(mode)),
		zap.String("model", model),
		zap.Int("sources", len(result.Sources)))

	return result, nil
}

// Synthesize renders text to 24kHz mono PCM16 audio
func (g *Gemini) Synthesize(ctx context.Context, text string, voice string) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	response, err := g.client.Models.GenerateContent(ctx, ttsModel, contents, config)
	if err != nil {
		g.logger.Error("Failed to synthesize speech", zap.Error(err))
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	for _, candidate := range response.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, errors.New("no audio generated")
}

// historyToContents converts stored messages to the API's content format
func historyToContents(history []entities.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == entities.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	return contents
}

// responseText concatenates the text parts of the first candidate
func responseText(response *genai.GenerateContentResponse) string {
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

// groundingSources extracts web citations attached by search grounding
func groundingSources(response *genai.GenerateContentResponse) []entities.Source {
	if len(response.Candidates) == 0 || response.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []entities.Source
	for _, chunk := range response.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, entities.Source{
			URI:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	return sources
}
