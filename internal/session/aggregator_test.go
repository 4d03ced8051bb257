package session

import (
	"fmt"
	"testing"

	"github.com/studyai/handsfree/domain/entities"
)

func TestTurnAggregation(t *testing.T) {
	conv := entities.NewConversation()
	agg := NewAggregator(conv)

	agg.AppendUser("Hi")
	agg.AppendModel("Hello")
	agg.CompleteTurn()

	if len(conv.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(conv.Messages))
	}

	if conv.Messages[0].Role != entities.RoleUser || conv.Messages[0].Content != "Hi" {
		t.Errorf("Unexpected first message: %+v", conv.Messages[0])
	}
	if conv.Messages[1].Role != entities.RoleModel || conv.Messages[1].Content != "Hello" {
		t.Errorf("Unexpected second message: %+v", conv.Messages[1])
	}

	snapshot := agg.Snapshot()
	if snapshot.User != "" || snapshot.Model != "" {
		t.Error("Both in-progress buffers should be empty after a completed turn")
	}
}

func TestPartialsAccumulate(t *testing.T) {
	agg := NewAggregator(entities.NewConversation())

	agg.AppendUser("What is ")
	agg.AppendUser("the speed of light?")
	agg.AppendModel("About ")
	agg.AppendModel("300,000 km/s.")

	snapshot := agg.Snapshot()
	if snapshot.User != "What is the speed of light?" {
		t.Errorf("Unexpected user buffer: %q", snapshot.User)
	}
	if snapshot.Model != "About 300,000 km/s." {
		t.Errorf("Unexpected model buffer: %q", snapshot.Model)
	}
}

func TestTurnCompleteTrimsAndSkipsEmptyBuffers(t *testing.T) {
	conv := entities.NewConversation()
	agg := NewAggregator(conv)

	agg.AppendUser("  \n ")
	agg.AppendModel("  Hello there.  ")
	agg.CompleteTurn()

	if len(conv.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Content != "Hello there." {
		t.Errorf("Expected trimmed content, got %q", conv.Messages[0].Content)
	}
}

func TestEmptyTurnProducesNothing(t *testing.T) {
	conv := entities.NewConversation()
	agg := NewAggregator(conv)

	agg.CompleteTurn()

	if !conv.Empty() {
		t.Error("A turn with no partials should not produce messages")
	}
	if len(agg.Snapshot().History) != 0 {
		t.Error("A turn with no partials should not produce history lines")
	}
}

func TestHistoryRendering(t *testing.T) {
	agg := NewAggregator(entities.NewConversation())

	agg.AppendUser("Hi")
	agg.AppendModel("Hello")
	agg.CompleteTurn()

	history := agg.Snapshot().History
	if len(history) != 2 {
		t.Fatalf("Expected 2 history lines, got %d", len(history))
	}
	if history[0] != "You: Hi" {
		t.Errorf("Unexpected user line: %q", history[0])
	}
	if history[1] != entities.AssistantName+": Hello" {
		t.Errorf("Unexpected model line: %q", history[1])
	}
}

func TestHistoryIsBoundedToLastSix(t *testing.T) {
	agg := NewAggregator(entities.NewConversation())

	for i := 0; i < 10; i++ {
		agg.AppendUser(fmt.Sprintf("line %d", i))
		agg.CompleteTurn()
	}

	history := agg.Snapshot().History
	if len(history) != historyLimit {
		t.Fatalf("Expected %d history lines, got %d", historyLimit, len(history))
	}

	// The retained lines are the most recent ones, in chronological order.
	for i, line := range history {
		want := fmt.Sprintf("You: line %d", i+4)
		if line != want {
			t.Errorf("History line %d: expected %q, got %q", i, want, line)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	agg := NewAggregator(entities.NewConversation())
	agg.AppendUser("Hi")
	agg.CompleteTurn()

	snapshot := agg.Snapshot()
	snapshot.History[0] = "mutated"

	if agg.Snapshot().History[0] != "You: Hi" {
		t.Error("Mutating a snapshot must not affect aggregator state")
	}
}
