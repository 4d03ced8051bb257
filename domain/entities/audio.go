package entities

import "time"

// AudioFrame is a fixed-length run of normalized PCM samples tagged with
// its sample rate. Frames are immutable once produced; ownership transfers
// downstream and frames are never aliased between pipeline stages.
type AudioFrame struct {
	// Samples holds channel-interleaved samples in [-1, 1].
	Samples []float32

	SampleRate int
	Channels   int
}

// Duration returns the playback duration of the frame
func (f *AudioFrame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := len(f.Samples) / f.Channels
	return time.Duration(float64(frames) / float64(f.SampleRate) * float64(time.Second))
}

// Seconds returns the playback duration in seconds
func (f *AudioFrame) Seconds() float64 {
	return f.Duration().Seconds()
}
