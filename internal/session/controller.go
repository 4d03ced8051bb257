package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
	"github.com/studyai/handsfree/internal/pcm"
)

// Defaults for the live session
const (
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice = "Zephyr"
)

// Status line literals shown to the user
const (
	statusConnecting = "Connecting..."
	statusConnected  = "Connected. Speak now."
	statusClosed     = "Connection closed."
	statusMicDenied  = "Error: Could not access microphone."
)

// State is the lifecycle phase of a hands-free session. States advance
// Connecting → Open → Closed and are never revisited.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config wires a Controller. Transport, Capture and Player are required;
// Sink may be nil when the caller does not persist conversations.
type Config struct {
	Model    string
	Voice    string
	Settings entities.Settings

	Transport repositories.LiveTransport
	Capture   repositories.CaptureDevice
	Player    repositories.Player
	Sink      repositories.ConversationSink

	Logger *zap.Logger

	// OnStatus receives the evolving one-line status. Optional.
	OnStatus func(status string)

	// OnTranscript receives a display snapshot after every transcript
	// mutation. Optional.
	OnTranscript func(snapshot TranscriptSnapshot)
}

// Controller orchestrates one hands-free session: device setup, transport
// open, steady-state streaming, interruption and teardown. All inbound
// event handling, transcript mutation and scheduling run on a single event
// loop; the outbound send path and the activity monitor are the only
// concurrent activity.
type Controller struct {
	cfg    Config
	logger *zap.Logger

	conversation *entities.Conversation
	agg          *Aggregator
	sched        *Scheduler

	session repositories.LiveSession

	state    atomic.Int32
	status   atomic.Value
	snapshot atomic.Value

	loopCh  chan func()
	failCh  chan error
	exitCh  chan struct{}
	exitFn  sync.Once
	tearFn  sync.Once
	done    chan struct{}
}

// New creates a controller for a single session. Controllers are not
// reusable; create a new one per session.
func New(cfg Config) (*Controller, error) {
	if cfg.Transport == nil || cfg.Capture == nil || cfg.Player == nil {
		return nil, errors.New("session: transport, capture and player are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}

	c := &Controller{
		cfg:          cfg,
		logger:       cfg.Logger,
		conversation: entities.NewConversation(),
		loopCh:       make(chan func(), 64),
		failCh:       make(chan error, 1),
		exitCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	c.agg = NewAggregator(c.conversation)
	c.sched = NewScheduler(cfg.Player, c.post, cfg.Logger)
	c.status.Store(statusConnecting)
	c.snapshot.Store(TranscriptSnapshot{})
	return c, nil
}

// State returns the current lifecycle phase
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Status returns the current user-visible status line
func (c *Controller) Status() string {
	return c.status.Load().(string)
}

// Transcript returns the latest display snapshot
func (c *Controller) Transcript() TranscriptSnapshot {
	return c.snapshot.Load().(TranscriptSnapshot)
}

// InputLevel reports the capture level for the activity monitor
func (c *Controller) InputLevel() float64 {
	return c.cfg.Capture.Level()
}

// OutputLevel reports the playback level for the activity monitor
func (c *Controller) OutputLevel() float64 {
	return c.cfg.Player.Level()
}

// ActiveOutputs reports how many playback sources are scheduled
func (c *Controller) ActiveOutputs() int {
	return c.sched.ActiveCount()
}

// Exit requests teardown. It is effective even while setup is still
// suspended, and is safe to call multiple times from any goroutine.
func (c *Controller) Exit() {
	c.exitFn.Do(func() { close(c.exitCh) })
}

// Done is closed once teardown has completed
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run drives the session through Connecting → Open → Closed and returns
// after teardown. The returned error is nil for a clean user exit.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Exit must abort setup mid-suspension as well, so it cancels the
	// context that device acquisition and transport open run under.
	go func() {
		select {
		case <-c.exitCh:
			cancel()
		case <-c.done:
		}
	}()

	c.setStatus(statusConnecting)

	if err := c.cfg.Capture.Open(ctx, c.handleFrame, c.handleCaptureError); err != nil {
		acquisitionErr := &DeviceAcquisitionError{Err: err}
		c.logger.Error("Failed to acquire input device", zap.Error(err))
		c.setStatus(statusMicDenied)
		c.teardown()
		return acquisitionErr
	}

	sessionConfig := repositories.SessionConfig{
		Model:             c.cfg.Model,
		Voice:             c.cfg.Voice,
		SystemInstruction: c.cfg.Settings.VoiceInstruction(),
	}
	liveSession, err := c.cfg.Transport.Connect(ctx, sessionConfig)
	if err != nil {
		transportErr := &TransportError{Err: err}
		c.logger.Error("Failed to open live session", zap.Error(err))
		c.setStatus("Error: " + err.Error())
		c.teardown()
		return transportErr
	}
	c.session = liveSession

	c.state.Store(int32(StateOpen))
	c.setStatus(statusConnected)

	if err := c.cfg.Capture.Start(); err != nil {
		captureErr := &CaptureError{Err: err}
		c.logger.Error("Failed to start capture", zap.Error(err))
		c.setStatus("Error: " + err.Error())
		c.teardown()
		return captureErr
	}

	return c.eventLoop(ctx)
}

// eventLoop is the single logical owner of session state: every inbound
// event, transcript mutation and scheduling decision passes through here.
func (c *Controller) eventLoop(ctx context.Context) error {
	events := c.session.Events()
	var runErr error

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return runErr

		case err := <-c.failCh:
			runErr = err
			c.setStatus("Error: " + err.Error())
			c.teardown()
			return runErr

		case fn := <-c.loopCh:
			fn()

		case event, ok := <-events:
			if !ok {
				c.teardown()
				return runErr
			}
			switch e := event.(type) {
			case repositories.UserTranscriptEvent:
				c.agg.AppendUser(e.Text)
				c.publishTranscript()
			case repositories.ModelTranscriptEvent:
				c.agg.AppendModel(e.Text)
				c.publishTranscript()
			case repositories.TurnCompleteEvent:
				c.agg.CompleteTurn()
				c.publishTranscript()
			case repositories.InterruptedEvent:
				c.sched.Interrupt()
			case repositories.AudioChunkEvent:
				c.scheduleAudio(e.Data)
			case repositories.ErrorEvent:
				runErr = &TransportError{Err: errors.New(e.Message)}
				c.setStatus("Error: " + e.Message)
			case repositories.ClosedEvent:
				if runErr == nil {
					c.setStatus(statusClosed)
				}
				c.teardown()
				return runErr
			}
		}
	}
}

// handleFrame runs on the capture device's delivery cadence. Sends are
// fire-and-forget: they never block event processing, and ordering among
// sends is preserved by the transport's queue.
func (c *Controller) handleFrame(samples []float32) {
	if c.State() != StateOpen {
		return
	}
	envelope := repositories.Envelope{
		Data:     pcm.EncodeFrame(samples),
		MimeType: repositories.CaptureMimeType,
	}
	if err := c.session.Send(envelope); err != nil {
		c.logger.Debug("Dropped outbound audio frame", zap.Error(err))
	}
}

func (c *Controller) handleCaptureError(err error) {
	select {
	case c.failCh <- &CaptureError{Err: err}:
	default:
	}
}

// scheduleAudio decodes one inbound chunk and hands it to the scheduler.
// A malformed chunk is dropped; it is never fatal.
func (c *Controller) scheduleAudio(data string) {
	raw, err := pcm.DecodeFrame(data)
	if err != nil {
		c.logger.Warn("Dropping malformed audio chunk", zap.Error(err))
		return
	}
	frame, err := pcm.BytesToFrame(raw, repositories.PlaybackSampleRate, 1)
	if err != nil {
		c.logger.Warn("Dropping malformed audio chunk", zap.Error(err))
		return
	}
	c.sched.Schedule(frame)
}

// post serializes a callback onto the event loop. Used by the scheduler
// for end-of-playback notifications.
func (c *Controller) post(fn func()) {
	select {
	case c.loopCh <- fn:
	case <-c.done:
	}
}

func (c *Controller) setStatus(status string) {
	c.status.Store(status)
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(status)
	}
}

func (c *Controller) publishTranscript() {
	snapshot := c.agg.Snapshot()
	c.snapshot.Store(snapshot)
	if c.cfg.OnTranscript != nil {
		c.cfg.OnTranscript(snapshot)
	}
}

// teardown runs at most once, regardless of which trigger raced in first.
// Every step completes; failures are logged, never re-raised.
func (c *Controller) teardown() {
	c.tearFn.Do(func() {
		c.state.Store(int32(StateClosed))

		c.sched.StopAll()

		if err := c.cfg.Capture.Stop(); err != nil {
			c.logger.Warn("Failed to release input device", zap.Error(err))
		}

		if c.session != nil {
			if err := c.session.Close(); err != nil {
				c.logger.Warn("Failed to close live session", zap.Error(err))
			}
		}

		if c.cfg.Sink != nil && !c.conversation.Empty() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.cfg.Sink.Save(ctx, c.conversation); err != nil {
				c.logger.Error("Failed to persist conversation", zap.Error(err))
			} else {
				c.logger.Info("Conversation persisted",
					zap.String("conversationID", c.conversation.ID),
					zap.Int("messages", len(c.conversation.Messages)))
			}
		}

		close(c.done)
	})
}
