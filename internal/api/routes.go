package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/repositories"
	"github.com/studyai/handsfree/internal/session"
)

// SessionStatus is the read-only view of a live session the API exposes
type SessionStatus interface {
	State() session.State
	Status() string
	Transcript() session.TranscriptSnapshot
	ActiveOutputs() int
}

// InitRoutes initializes all API routes. current returns the active session
// or nil; store may be nil when persistence is disabled.
func InitRoutes(e *echo.Echo, current func() SessionStatus, store repositories.ConversationStore, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "handsfree",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/session", func(c echo.Context) error {
		return getSession(c, current)
	})
	v1.GET("/session/transcript", func(c echo.Context) error {
		return getTranscript(c, current)
	})
	v1.GET("/conversations", func(c echo.Context) error {
		return getConversations(c, store, logger)
	})
}

func getSession(c echo.Context, current func() SessionStatus) error {
	active := current()
	if active == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No hands-free session is running",
		})
	}

	return c.JSON(http.StatusOK, SessionResponse{
		State:         active.State().String(),
		Status:        active.Status(),
		ActiveOutputs: active.ActiveOutputs(),
	})
}

func getTranscript(c echo.Context, current func() SessionStatus) error {
	active := current()
	if active == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No hands-free session is running",
		})
	}

	snapshot := active.Transcript()
	history := snapshot.History
	if history == nil {
		history = []string{}
	}
	return c.JSON(http.StatusOK, TranscriptResponse{
		User:    snapshot.User,
		Model:   snapshot.Model,
		History: history,
	})
}

func getConversations(c echo.Context, store repositories.ConversationStore, logger *zap.Logger) error {
	if store == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_store",
			Message: "Conversation persistence is disabled",
		})
	}

	conversations, err := store.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list conversations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to read stored conversations",
		})
	}

	return c.JSON(http.StatusOK, ConversationsResponse{Conversations: conversations})
}
