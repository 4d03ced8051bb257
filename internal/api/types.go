package api

import "github.com/studyai/handsfree/domain/entities"

// SessionResponse describes the live session, if any
type SessionResponse struct {
	State         string `json:"state"`
	Status        string `json:"status"`
	ActiveOutputs int    `json:"active_outputs"`
}

// TranscriptResponse is the current display snapshot of the live session
type TranscriptResponse struct {
	User    string   `json:"user"`
	Model   string   `json:"model"`
	History []string `json:"history"`
}

// ConversationsResponse lists stored conversations, newest first
type ConversationsResponse struct {
	Conversations []*entities.Conversation `json:"conversations"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
