package repositories

import "context"

// Envelope is the outbound payload sent per captured audio frame
type Envelope struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// SessionConfig configures one live duplex session
type SessionConfig struct {
	Model             string
	Voice             string
	SystemInstruction string
}

// LiveTransport opens live duplex sessions with the remote speech model
type LiveTransport interface {
	Connect(ctx context.Context, config SessionConfig) (LiveSession, error)
}

// LiveSession is one persistent duplex channel to the remote model.
// A session lives exactly as long as the hands-free mode stays open;
// there is no reconnect.
type LiveSession interface {
	// Send enqueues an outbound audio envelope. The caller never observes
	// backpressure; envelopes are written to the network in arrival order.
	Send(envelope Envelope) error

	// Events returns the inbound event stream. The stream is lazy,
	// single-consumer and non-restartable; the channel is closed after the
	// final ClosedEvent has been delivered.
	Events() <-chan ServerEvent

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// ServerEvent is one tagged inbound event from the live session
type ServerEvent interface {
	serverEventType() string
}

// UserTranscriptEvent carries a partial transcript of the user's speech
type UserTranscriptEvent struct {
	Text string
}

// ModelTranscriptEvent carries a partial transcript of the model's speech
type ModelTranscriptEvent struct {
	Text string
}

// TurnCompleteEvent closes the current utterance exchange unit
type TurnCompleteEvent struct{}

// InterruptedEvent signals barge-in: the user started speaking while model
// audio was still playing, so queued playback must stop immediately
type InterruptedEvent struct{}

// AudioChunkEvent carries base64 PCM16 response audio at 24 kHz mono
type AudioChunkEvent struct {
	Data string
}

// ErrorEvent is a mid-session transport or protocol failure
type ErrorEvent struct {
	Message string
}

// ClosedEvent is the terminal event of a session's stream
type ClosedEvent struct {
	Reason string
}

func (UserTranscriptEvent) serverEventType() string  { return "user_transcript" }
func (ModelTranscriptEvent) serverEventType() string { return "model_transcript" }
func (TurnCompleteEvent) serverEventType() string    { return "turn_complete" }
func (InterruptedEvent) serverEventType() string     { return "interrupted" }
func (AudioChunkEvent) serverEventType() string      { return "audio_chunk" }
func (ErrorEvent) serverEventType() string           { return "error" }
func (ClosedEvent) serverEventType() string          { return "closed" }
