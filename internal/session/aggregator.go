package session

import (
	"fmt"
	"strings"

	"github.com/studyai/handsfree/domain/entities"
)

// historyLimit bounds the rendered transcript scrollback
const historyLimit = 6

// TranscriptSnapshot is a read-only view of the aggregator state for
// display: at most one in-flight utterance per speaker plus a short
// scrollback.
type TranscriptSnapshot struct {
	User    string
	Model   string
	History []string
}

// Aggregator reconstructs turn-based messages from the unbounded stream of
// partial transcript events. It is mutated only on the session's event
// loop.
type Aggregator struct {
	user    string
	model   string
	history []string
	log     *entities.Conversation
}

// NewAggregator creates an aggregator appending finalized utterances to the
// given conversation log.
func NewAggregator(log *entities.Conversation) *Aggregator {
	return &Aggregator{log: log}
}

// AppendUser accumulates a partial transcript of the user's speech
func (a *Aggregator) AppendUser(text string) {
	a.user += text
}

// AppendModel accumulates a partial transcript of the model's speech
func (a *Aggregator) AppendModel(text string) {
	a.model += text
}

// CompleteTurn finalizes both in-flight utterances: each non-empty buffer
// becomes a message in the conversation log (user first) and a rendered
// line in the bounded history. Both buffers are cleared.
func (a *Aggregator) CompleteTurn() {
	userText := strings.TrimSpace(a.user)
	modelText := strings.TrimSpace(a.model)

	if userText != "" {
		message := entities.NewMessage(entities.RoleUser, userText)
		a.log.Append(message)
		a.pushHistory(fmt.Sprintf("%s: %s", message.SpeakerLabel(), userText))
	}
	if modelText != "" {
		message := entities.NewMessage(entities.RoleModel, modelText)
		a.log.Append(message)
		a.pushHistory(fmt.Sprintf("%s: %s", message.SpeakerLabel(), modelText))
	}

	a.user = ""
	a.model = ""
}

func (a *Aggregator) pushHistory(line string) {
	a.history = append(a.history, line)
	if len(a.history) > historyLimit {
		a.history = a.history[len(a.history)-historyLimit:]
	}
}

// Snapshot copies the current display state
func (a *Aggregator) Snapshot() TranscriptSnapshot {
	history := make([]string, len(a.history))
	copy(history, a.history)
	return TranscriptSnapshot{
		User:    a.user,
		Model:   a.model,
		History: history,
	}
}
