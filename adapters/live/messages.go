package live

import (
	"strings"

	"github.com/studyai/handsfree/domain/repositories"
)

// Wire types for the bidirectional generate-content protocol. Field names
// follow the JSON the service speaks; only the fields this client uses are
// modeled.

type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *content         `json:"systemInstruction,omitempty"`
	Tools                    []tool           `json:"tools,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// newSetupMessage builds the session-opening handshake for a live session
func newSetupMessage(config repositories.SessionConfig) clientMessage {
	model := config.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	setup := &setupPayload{
		Model: model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: config.Voice},
				},
			},
		},
		Tools:                    []tool{{GoogleSearch: &struct{}{}}},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if config.SystemInstruction != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: config.SystemInstruction}}}
	}
	return clientMessage{Setup: setup}
}

// newRealtimeMessage wraps one outbound audio envelope
func newRealtimeMessage(envelope repositories.Envelope) clientMessage {
	return clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []mediaChunk{{MimeType: envelope.MimeType, Data: envelope.Data}},
		},
	}
}

// events translates one wire message into its domain events, in the order
// they must be applied: an interruption precedes any audio the same message
// might carry, and turn completion always comes last.
func (m serverMessage) events() []repositories.ServerEvent {
	sc := m.ServerContent
	if sc == nil {
		return nil
	}

	var events []repositories.ServerEvent
	if sc.Interrupted {
		events = append(events, repositories.InterruptedEvent{})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, repositories.UserTranscriptEvent{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, repositories.ModelTranscriptEvent{Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				events = append(events, repositories.AudioChunkEvent{Data: p.InlineData.Data})
			}
		}
	}
	if sc.TurnComplete {
		events = append(events, repositories.TurnCompleteEvent{})
	}
	return events
}
