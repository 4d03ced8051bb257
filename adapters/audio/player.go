package audio

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
)

// Playback buffer at 24kHz mono 16-bit: 4800 bytes is roughly 100ms.
// Small enough to keep barge-in latency low.
const playbackBufferSize = 4800

// Player schedules playback of PCM frames on the default output device over
// a monotonic device clock. It implements repositories.Player.
type Player struct {
	otoCtx *oto.Context
	epoch  time.Time
	logger *zap.Logger

	mu      sync.Mutex
	playing int
	peak    float64
}

// NewPlayer acquires the default output device at the playback rate
func NewPlayer(logger *zap.Logger) (*Player, error) {
	options := &oto.NewContextOptions{
		SampleRate:   repositories.PlaybackSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   playbackBufferSize,
	}
	otoCtx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, err
	}
	<-ready

	logger.Info("Output device acquired",
		zap.Int("sampleRate", repositories.PlaybackSampleRate),
		zap.Int("bufferBytes", playbackBufferSize))

	return &Player{
		otoCtx: otoCtx,
		epoch:  time.Now(),
		logger: logger,
	}, nil
}

// Now returns seconds elapsed on the device clock
func (p *Player) Now() float64 {
	return time.Since(p.epoch).Seconds()
}

// Level reports the peak amplitude of currently playing audio, 0 when idle
func (p *Player) Level() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing == 0 {
		return 0
	}
	return p.peak
}

// Start schedules one frame to begin at the given device time. onEnded fires
// once after natural completion; it does not fire after Stop.
func (p *Player) Start(frame *entities.AudioFrame, when float64, onEnded func()) (repositories.AudioSource, error) {
	source := &playbackSource{
		parent:   p,
		data:     frameToPCM16(frame),
		duration: frame.Duration(),
		peak:     framePeak(frame),
		onEnded:  onEnded,
	}

	delay := time.Duration((when - p.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}
	source.startTimer = time.AfterFunc(delay, source.begin)
	return source, nil
}

func (p *Player) sourceStarted(peak float64) {
	p.mu.Lock()
	p.playing++
	if peak > p.peak || p.playing == 1 {
		p.peak = peak
	}
	p.mu.Unlock()
}

func (p *Player) sourceFinished() {
	p.mu.Lock()
	if p.playing > 0 {
		p.playing--
	}
	p.mu.Unlock()
}

// Close is a no-op; the process-wide oto context cannot be released and is
// reclaimed at exit.
func (p *Player) Close() error {
	return nil
}

// playbackSource is one scheduled frame. Its lifecycle is pending (start
// timer armed), playing (oto player running, end timer armed), then ended
// or stopped.
type playbackSource struct {
	parent   *Player
	data     []byte
	duration time.Duration
	peak     float64
	onEnded  func()

	mu         sync.Mutex
	stopped    bool
	started    bool
	player     *oto.Player
	startTimer *time.Timer
	endTimer   *time.Timer
}

// begin runs when the start timer fires
func (s *playbackSource) begin() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.player = s.parent.otoCtx.NewPlayer(bytes.NewReader(s.data))
	s.player.Play()
	s.endTimer = time.AfterFunc(s.duration, s.end)
	s.mu.Unlock()

	s.parent.sourceStarted(s.peak)
}

// end runs when playback has drained naturally
func (s *playbackSource) end() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	player := s.player
	s.mu.Unlock()

	if player != nil {
		player.Close()
	}
	s.parent.sourceFinished()
	s.onEnded()
}

// Stop halts the source immediately. Idempotent; a stopped source never
// invokes onEnded.
func (s *playbackSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	player := s.player
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	if s.endTimer != nil {
		s.endTimer.Stop()
	}
	s.mu.Unlock()

	if player != nil {
		player.Pause()
		player.Close()
	}
	if started {
		s.parent.sourceFinished()
	}
}

func frameToPCM16(frame *entities.AudioFrame) []byte {
	data := make([]byte, len(frame.Samples)*2)
	for i, sample := range frame.Samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		value := int16(sample * 32767)
		data[i*2] = byte(value)
		data[i*2+1] = byte(value >> 8)
	}
	return data
}

func framePeak(frame *entities.AudioFrame) float64 {
	peak := float32(0)
	for _, sample := range frame.Samples {
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	return float64(peak)
}
