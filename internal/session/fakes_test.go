package session

import (
	"context"
	"sync"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
)

// fakePlayer records scheduled frames and exposes a manually advanced
// device clock.
type fakePlayer struct {
	mu     sync.Mutex
	now    float64
	starts []fakeStart
	level  float64
}

type fakeStart struct {
	frame  *entities.AudioFrame
	when   float64
	source *fakeSource
}

type fakeSource struct {
	mu      sync.Mutex
	stopped bool
	onEnded func()
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakeSource) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// finish simulates natural end of playback
func (s *fakeSource) finish() {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped {
		s.onEnded()
	}
}

func (p *fakePlayer) Now() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

func (p *fakePlayer) setNow(now float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

func (p *fakePlayer) Start(frame *entities.AudioFrame, when float64, onEnded func()) (repositories.AudioSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	source := &fakeSource{onEnded: onEnded}
	p.starts = append(p.starts, fakeStart{frame: frame, when: when, source: source})
	return source, nil
}

func (p *fakePlayer) Level() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *fakePlayer) startCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.starts)
}

func (p *fakePlayer) startAt(i int) fakeStart {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.starts[i]
}

// fakeCapture satisfies CaptureDevice without touching real hardware
type fakeCapture struct {
	mu      sync.Mutex
	openErr error
	opened  bool
	started bool
	stopped bool
	onFrame func(samples []float32)
	onErr   func(error)
	level   float64
}

func (c *fakeCapture) Open(_ context.Context, onFrame func([]float32), onErr func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.opened = true
	c.onFrame = onFrame
	c.onErr = onErr
	return nil
}

func (c *fakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return nil
}

func (c *fakeCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	return nil
}

func (c *fakeCapture) Level() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *fakeCapture) wasStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *fakeCapture) deliver(samples []float32) {
	c.mu.Lock()
	onFrame := c.onFrame
	c.mu.Unlock()
	if onFrame != nil {
		onFrame(samples)
	}
}

// fakeTransport hands out a scripted live session
type fakeTransport struct {
	mu         sync.Mutex
	connectErr error
	connected  bool
	session    *fakeLiveSession
}

func (t *fakeTransport) Connect(_ context.Context, _ repositories.SessionConfig) (repositories.LiveSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	t.connected = true
	return t.session, nil
}

func (t *fakeTransport) wasConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

type fakeLiveSession struct {
	mu     sync.Mutex
	events chan repositories.ServerEvent
	sent   []repositories.Envelope
	closed bool
}

func newFakeLiveSession() *fakeLiveSession {
	return &fakeLiveSession{events: make(chan repositories.ServerEvent, 32)}
}

func (s *fakeLiveSession) Send(envelope repositories.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, envelope)
	return nil
}

func (s *fakeLiveSession) Events() <-chan repositories.ServerEvent {
	return s.events
}

func (s *fakeLiveSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *fakeLiveSession) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeLiveSession) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// emit drops the event once the session is closed, mirroring a real
// transport that stops delivering after Close.
func (s *fakeLiveSession) emit(event repositories.ServerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- event
}

// fakeSink records delivered conversations
type fakeSink struct {
	mu    sync.Mutex
	saved []*entities.Conversation
}

func (f *fakeSink) Save(_ context.Context, conversation *entities.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, conversation)
	return nil
}

func (f *fakeSink) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
