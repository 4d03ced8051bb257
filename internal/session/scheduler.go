package session

import (
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
)

// Scheduler plays decoded response audio back-to-back with no gaps and no
// overlaps. It owns the playback cursor: the earliest device time at which
// the output is free. The cursor only moves forward, except for the
// explicit rewind on interruption.
//
// All methods must be called from the session's event loop; only
// ActiveCount is safe from other goroutines.
type Scheduler struct {
	player repositories.Player
	post   func(fn func())
	logger *zap.Logger

	cursor  float64
	active  map[string]repositories.AudioSource
	activeN atomic.Int32
}

// NewScheduler creates a scheduler over the given output device. post must
// serialize end-of-playback callbacks onto the session's event loop.
func NewScheduler(player repositories.Player, post func(fn func()), logger *zap.Logger) *Scheduler {
	return &Scheduler{
		player: player,
		post:   post,
		logger: logger,
		active: make(map[string]repositories.AudioSource),
	}
}

// Schedule queues a frame to start the moment the previous one ends, but
// never in the past.
func (s *Scheduler) Schedule(frame *entities.AudioFrame) {
	start := s.cursor
	if now := s.player.Now(); now > start {
		start = now
	}

	id := uuid.NewString()
	source, err := s.player.Start(frame, start, func() {
		s.post(func() { s.remove(id) })
	})
	if err != nil {
		s.logger.Warn("Failed to schedule playback chunk", zap.Error(err))
		return
	}

	s.active[id] = source
	s.activeN.Store(int32(len(s.active)))
	s.cursor = start + frame.Seconds()
}

// Interrupt models barge-in: every queued source is force-stopped, the set
// is cleared, and the cursor rewinds so the next frame starts immediately
// at device time instead of the stale future cursor.
func (s *Scheduler) Interrupt() {
	s.stopAll()
	s.cursor = 0
}

// StopAll force-stops every queued source during teardown
func (s *Scheduler) StopAll() {
	s.stopAll()
}

func (s *Scheduler) stopAll() {
	for id, source := range s.active {
		source.Stop()
		delete(s.active, id)
	}
	s.activeN.Store(0)
}

func (s *Scheduler) remove(id string) {
	if _, ok := s.active[id]; ok {
		delete(s.active, id)
		s.activeN.Store(int32(len(s.active)))
	}
}

// ActiveCount reports how many scheduled sources have not yet finished.
// Safe to call from any goroutine.
func (s *Scheduler) ActiveCount() int {
	return int(s.activeN.Load())
}
