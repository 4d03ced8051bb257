package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Response audio arrives in
	// large inline chunks.
	maxMessageSize = 2 * 1024 * 1024

	// Outbound queue depth. Capture delivers roughly four frames per
	// second, so this absorbs well over a minute of network stall.
	sendQueueSize = 256
)

const defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Transport dials live duplex sessions against the generative language
// service. One Transport can open any number of sessions.
type Transport struct {
	apiKey   string
	endpoint string
	dialer   *websocket.Dialer
	logger   *zap.Logger
}

// NewTransport creates a live transport authenticating with the given API key
func NewTransport(apiKey string, logger *zap.Logger) *Transport {
	return &Transport{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			ReadBufferSize:   maxMessageSize,
			WriteBufferSize:  64 * 1024,
		},
		logger: logger,
	}
}

// NewTransportWithEndpoint creates a transport against a non-default
// endpoint. Used by tests pointing at a local server.
func NewTransportWithEndpoint(apiKey, endpoint string, logger *zap.Logger) *Transport {
	t := NewTransport(apiKey, logger)
	t.endpoint = endpoint
	return t
}

// Connect dials the service, performs the setup handshake and returns the
// established session. The setup message carries model, voice, system
// instruction and transcription flags; the session is usable once the
// service acknowledges setup.
func (t *Transport) Connect(ctx context.Context, config repositories.SessionConfig) (repositories.LiveSession, error) {
	endpoint := t.endpoint + "?key=" + url.QueryEscape(t.apiKey)

	conn, _, err := t.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial live endpoint: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(newSetupMessage(config)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(writeWait))
	var ack serverMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read setup ack: %w", err)
	}
	if ack.SetupComplete == nil {
		conn.Close()
		return nil, errors.New("live session setup was not acknowledged")
	}

	t.logger.Info("Live session established",
		zap.String("model", config.Model),
		zap.String("voice", config.Voice))

	session := &Session{
		conn:   conn,
		send:   make(chan clientMessage, sendQueueSize),
		events: make(chan repositories.ServerEvent, 64),
		quit:   make(chan struct{}),
		logger: t.logger,
	}

	go session.writePump()
	go session.readPump()

	return session, nil
}

// Session is one established live duplex connection
type Session struct {
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan clientMessage

	// Inbound event stream. Owned by readPump; closed after the final
	// ClosedEvent.
	events chan repositories.ServerEvent

	quit      chan struct{}
	closeOnce sync.Once

	logger *zap.Logger
}

// Send enqueues one outbound envelope. It never blocks; when the queue is
// full the frame is dropped with an error, which the caller treats as a
// transient loss.
func (s *Session) Send(envelope repositories.Envelope) error {
	select {
	case <-s.quit:
		return errors.New("live session is closed")
	default:
	}

	select {
	case s.send <- newRealtimeMessage(envelope):
		return nil
	default:
		return errors.New("outbound queue is full")
	}
}

// Events returns the inbound event stream
func (s *Session) Events() <-chan repositories.ServerEvent {
	return s.events
}

// Close tears down the connection. Safe to call more than once; the event
// stream still terminates with a ClosedEvent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	return nil
}

// readPump pumps messages from the websocket connection into the event
// stream. It is the sole writer of the events channel and guarantees the
// terminal ClosedEvent before closing it.
func (s *Session) readPump() {
	reason := "connection closed"

	defer func() {
		s.Close()
		s.conn.Close()
		select {
		case s.events <- repositories.ClosedEvent{Reason: reason}:
		default:
		}
		close(s.events)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				select {
				case <-s.quit:
					// Local teardown raced the read; not a failure.
				default:
					s.logger.Error("Live session read failed", zap.Error(err))
					s.emit(repositories.ErrorEvent{Message: err.Error()})
					reason = err.Error()
				}
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn("Skipping unparseable server message", zap.Error(err))
			continue
		}

		if msg.GoAway != nil {
			s.logger.Info("Service announced session end",
				zap.String("timeLeft", msg.GoAway.TimeLeft))
			continue
		}

		for _, event := range msg.events() {
			if !s.emit(event) {
				return
			}
		}
	}
}

// writePump pumps queued messages onto the websocket connection
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(message); err != nil {
				s.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.quit:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) emit(event repositories.ServerEvent) bool {
	select {
	case s.events <- event:
		return true
	case <-s.quit:
		return false
	}
}
