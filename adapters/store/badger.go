package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/studyai/handsfree/domain/entities"
)

// Keys are ordered by creation time so a reverse scan yields newest first.
const conversationPrefix = "conversation:"

// Badger is a ConversationStore backed by BadgerDB v4
type Badger struct {
	db     *badger.DB
	logger *zap.Logger
}

// Options configures the store
type Options struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs the database without disk persistence. Used by tests.
	InMemory bool

	Logger *zap.Logger
}

// NewBadger opens the conversation store
func NewBadger(opts Options) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("store: Dir is required for on-disk mode")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(nil)

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}
	return &Badger{db: db, logger: opts.Logger}, nil
}

// Save persists one finalized conversation
func (b *Badger) Save(_ context.Context, conversation *entities.Conversation) error {
	if err := conversation.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	key := conversationKey(conversation)
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}

	b.logger.Debug("Conversation stored",
		zap.String("conversationID", conversation.ID),
		zap.Int("messages", len(conversation.Messages)))
	return nil
}

// List returns all stored conversations, newest first
func (b *Badger) List(_ context.Context) ([]*entities.Conversation, error) {
	var conversations []*entities.Conversation

	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(conversationPrefix)
		iterOpts.Reverse = true
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		// A reverse iterator seeks to the last key under the prefix.
		seek := append([]byte(conversationPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(conversationPrefix)); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var conversation entities.Conversation
			if err := json.Unmarshal(value, &conversation); err != nil {
				b.logger.Warn("Skipping undecodable conversation",
					zap.ByteString("key", it.Item().Key()),
					zap.Error(err))
				continue
			}
			conversations = append(conversations, &conversation)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// Close flushes and closes the database
func (b *Badger) Close() error {
	return b.db.Close()
}

func conversationKey(conversation *entities.Conversation) []byte {
	return []byte(fmt.Sprintf("%s%s:%s",
		conversationPrefix,
		conversation.CreatedAt.UTC().Format(time.RFC3339Nano),
		conversation.ID))
}
