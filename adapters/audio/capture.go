package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/repositories"
)

// Capture records microphone audio as 16kHz mono float32 and delivers it in
// fixed-size frames. It implements repositories.CaptureDevice.
type Capture struct {
	logger *zap.Logger

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	pending  []float32
	level    float64
	closing  bool

	onFrame func(samples []float32)
	onErr   func(err error)
}

// NewCapture creates an unopened capture device
func NewCapture(logger *zap.Logger) *Capture {
	return &Capture{logger: logger}
}

// Open acquires the default input device. onFrame is invoked from the audio
// driver's delivery goroutine once per full frame; onErr is invoked when the
// device stops outside of an explicit Stop.
func (c *Capture) Open(ctx context.Context, onFrame func([]float32), onErr func(error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return errors.New("capture device is already open")
	}
	c.onFrame = onFrame
	c.onErr = onErr

	contextConfig := malgo.ContextConfig{}
	contextConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	malgoCtx, err := malgo.InitContext(nil, contextConfig, nil)
	if err != nil {
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = repositories.CaptureSampleRate
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.ingest(input)
		},
		Stop: func() {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if !closing {
				c.onErr(errors.New("capture device stopped unexpectedly"))
			}
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		malgoCtx.Uninit()
		return err
	}

	c.malgoCtx = malgoCtx
	c.device = device
	return nil
}

// Start begins delivering frames
func (c *Capture) Start() error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return errors.New("capture device is not open")
	}
	return device.Start()
}

// Stop releases the device. Safe to call on a device that never opened.
func (c *Capture) Stop() error {
	c.mu.Lock()
	c.closing = true
	device := c.device
	malgoCtx := c.malgoCtx
	c.device = nil
	c.malgoCtx = nil
	c.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if malgoCtx != nil {
		malgoCtx.Uninit()
	}
	return nil
}

// Level reports the peak amplitude of the most recent delivery, normalized
// to 0..1
func (c *Capture) Level() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// ingest appends driver samples to the framing buffer and flushes every
// complete frame. Runs on the driver's delivery goroutine.
func (c *Capture) ingest(input []byte) {
	samples := bytesToFloat32(input)

	peak := 0.0
	for _, s := range samples {
		if abs := math.Abs(float64(s)); abs > peak {
			peak = abs
		}
	}

	c.mu.Lock()
	c.level = peak
	c.pending = append(c.pending, samples...)

	var frames [][]float32
	for len(c.pending) >= repositories.CaptureFrameSize {
		frame := make([]float32, repositories.CaptureFrameSize)
		copy(frame, c.pending[:repositories.CaptureFrameSize])
		frames = append(frames, frame)
		c.pending = c.pending[repositories.CaptureFrameSize:]
	}
	onFrame := c.onFrame
	c.mu.Unlock()

	for _, frame := range frames {
		onFrame(frame)
	}
}

func bytesToFloat32(input []byte) []float32 {
	samples := make([]float32, len(input)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(input[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
