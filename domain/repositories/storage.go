package repositories

import (
	"context"

	"github.com/studyai/handsfree/domain/entities"
)

// ConversationSink receives the finalized message log when a hands-free
// session ends. Empty conversations are never delivered.
type ConversationSink interface {
	Save(ctx context.Context, conversation *entities.Conversation) error
}

// ConversationStore is a sink that also supports retrieval
type ConversationStore interface {
	ConversationSink

	// List returns stored conversations, newest first
	List(ctx context.Context) ([]*entities.Conversation, error)

	Close() error
}
