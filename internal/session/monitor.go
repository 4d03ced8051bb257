package session

import (
	"context"
	"time"
)

// SpeakerState classifies who is audibly speaking right now
type SpeakerState int

const (
	SpeakerNone SpeakerState = iota
	SpeakerUser
	SpeakerModel
)

func (s SpeakerState) String() string {
	switch s {
	case SpeakerUser:
		return "user"
	case SpeakerModel:
		return "model"
	default:
		return "none"
	}
}

// DefaultSpeakingThreshold is the minimum normalized input level treated as
// speech. It mirrors the historical 40-of-255 amplitude cutoff; treat it as
// a tunable default, not a contract.
const DefaultSpeakingThreshold = 40.0 / 255.0

// MonitorSample is one reading of the activity monitor
type MonitorSample struct {
	State SpeakerState
	Level float64
}

// MonitorConfig tunes the activity monitor
type MonitorConfig struct {
	// Interval between samples. Defaults to 50ms.
	Interval time.Duration

	// Threshold is the input level above which the user counts as
	// speaking. Defaults to DefaultSpeakingThreshold.
	Threshold float64

	// ReleaseMargin lowers the threshold while the user is already
	// speaking, to avoid flicker at borderline volume. Zero disables the
	// hysteresis.
	ReleaseMargin float64
}

// Monitor periodically samples capture and playback levels to drive the
// "is speaking" visual signal. It only reads snapshots and never mutates
// session state, so it needs no synchronization with the session core.
type Monitor struct {
	cfg           MonitorConfig
	inputLevel    func() float64
	outputLevel   func() float64
	activeOutputs func() int
	onSample      func(MonitorSample)

	speaking bool
}

// NewMonitor creates an activity monitor. onSample is invoked on the
// monitor's own goroutine once per interval.
func NewMonitor(cfg MonitorConfig, inputLevel, outputLevel func() float64, activeOutputs func() int, onSample func(MonitorSample)) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSpeakingThreshold
	}
	return &Monitor{
		cfg:           cfg,
		inputLevel:    inputLevel,
		outputLevel:   outputLevel,
		activeOutputs: activeOutputs,
		onSample:      onSample,
	}
}

// Run samples until the context is cancelled
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.onSample(m.sample())
		}
	}
}

func (m *Monitor) sample() MonitorSample {
	if m.activeOutputs() > 0 {
		m.speaking = false
		return MonitorSample{State: SpeakerModel, Level: m.outputLevel()}
	}

	level := m.inputLevel()
	threshold := m.cfg.Threshold
	if m.speaking {
		threshold -= m.cfg.ReleaseMargin
	}

	m.speaking = level > threshold
	if m.speaking {
		return MonitorSample{State: SpeakerUser, Level: level}
	}
	return MonitorSample{State: SpeakerNone, Level: level}
}
