package repositories

import (
	"context"

	"github.com/studyai/handsfree/domain/entities"
)

// Audio pipeline constants. Capture is fixed at 16 kHz mono and playback at
// 24 kHz mono; there is no transcoding beyond these rates.
const (
	CaptureSampleRate  = 16000
	PlaybackSampleRate = 24000
	CaptureFrameSize   = 4096
	CaptureMimeType    = "audio/pcm;rate=16000"
)

// CaptureDevice owns the microphone input for the lifetime of one session.
// Frame delivery is push-based: the device cannot be polled, only
// subscribed.
type CaptureDevice interface {
	// Open acquires the input device. onFrame receives fixed-size frames of
	// CaptureFrameSize mono samples at CaptureSampleRate, at the device's
	// native cadence. onErr fires if the device becomes unavailable
	// mid-session (permission revoked, device removed).
	Open(ctx context.Context, onFrame func(samples []float32), onErr func(error)) error

	// Start begins frame delivery. Open must have succeeded.
	Start() error

	// Stop halts delivery and releases the device. It must be safe on every
	// exit path, including after a failed Open.
	Stop() error

	// Level returns the most recent input level in [0, 1]. Reading it never
	// mutates device state.
	Level() float64
}

// AudioSource is a single scheduled playback handle
type AudioSource interface {
	// Stop cancels playback immediately. The natural end callback does not
	// fire after Stop.
	Stop()
}

// Player owns the output audio sink and its clock. The player may be shared
// with other playback features in the application; it outlives individual
// hands-free sessions.
type Player interface {
	// Now returns the device clock in seconds
	Now() float64

	// Start schedules a frame to begin at the given device time. onEnded
	// fires exactly once when playback finishes naturally.
	Start(frame *entities.AudioFrame, when float64, onEnded func()) (AudioSource, error)

	// Level returns the most recent output level in [0, 1]
	Level() float64
}
