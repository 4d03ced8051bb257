package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// AssistantName is the display name used for model utterances
const AssistantName = "Study AI"

// Source is a citation attached to a search-grounded response
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is a single finalized utterance. Messages are never mutated
// after creation.
type Message struct {
	ID      string   `json:"id"`
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// NewMessage creates a finalized message with a fresh ID
func NewMessage(role Role, content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}
}

// SpeakerLabel returns the label used when rendering a transcript line
func (m Message) SpeakerLabel() string {
	if m.Role == RoleUser {
		return "You"
	}
	return AssistantName
}

// Conversation is the ordered, append-only message log of one hands-free
// session. It is handed to the conversation sink exactly once, at exit.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Messages:  make([]Message, 0),
	}
}

// Append adds a finalized message to the log
func (c *Conversation) Append(m Message) {
	c.Messages = append(c.Messages, m)
}

// Empty reports whether the conversation holds no messages
func (c *Conversation) Empty() bool {
	return len(c.Messages) == 0
}

// Validate validates the conversation data
func (c *Conversation) Validate() error {
	if c.ID == "" {
		return errors.New("conversation id is required")
	}
	for _, m := range c.Messages {
		if m.Role != RoleUser && m.Role != RoleModel {
			return errors.New("invalid message role")
		}
	}
	return nil
}
