package entities

import (
	"strings"
	"testing"
)

func TestVoiceInstructionDefault(t *testing.T) {
	instruction := Settings{}.VoiceInstruction()

	if !strings.Contains(instruction, "hands-free voice conversation") {
		t.Error("Voice instruction should mention the hands-free mode")
	}

	if strings.Contains(instruction, "The user's name is") {
		t.Error("Voice instruction should not mention a user name when none is set")
	}

	if strings.Contains(instruction, "key facts") {
		t.Error("Voice instruction should not mention memory facts when none are set")
	}
}

func TestVoiceInstructionWithUserName(t *testing.T) {
	instruction := Settings{UserName: "Ada"}.VoiceInstruction()

	if !strings.Contains(instruction, "The user's name is Ada.") {
		t.Errorf("Expected personalization clause, got: %s", instruction)
	}

	if !strings.Contains(instruction, "hands-free voice conversation") {
		t.Error("Personalized voice instruction should still mention hands-free mode")
	}
}

func TestVoiceInstructionWithMemory(t *testing.T) {
	settings := Settings{
		Memory: []MemoryFact{
			{Key: "favorite subject", Value: "physics"},
			{Key: "", Value: "ignored"},
			{Key: "ignored too", Value: ""},
			{Key: "grade", Value: "11"},
		},
	}

	instruction := settings.VoiceInstruction()

	want := "favorite subject: physics; grade: 11"
	if !strings.Contains(instruction, want) {
		t.Errorf("Expected facts %q in instruction, got: %s", want, instruction)
	}

	if strings.Contains(instruction, "ignored") {
		t.Error("Facts with empty key or value should be skipped")
	}
}

func TestVoiceInstructionSkipsAllEmptyMemory(t *testing.T) {
	settings := Settings{
		Memory: []MemoryFact{{Key: "", Value: ""}},
	}

	if strings.Contains(settings.VoiceInstruction(), "key facts") {
		t.Error("Memory clause should be omitted when every fact is empty")
	}
}

func TestChatInstruction(t *testing.T) {
	instruction := Settings{UserName: "Ada"}.ChatInstruction()

	if strings.Contains(instruction, "hands-free") {
		t.Error("Chat instruction should not mention hands-free mode")
	}

	if !strings.Contains(instruction, "The user's name is Ada.") {
		t.Errorf("Expected personalization clause, got: %s", instruction)
	}

	withMemory := Settings{Memory: []MemoryFact{{Key: "pet", Value: "cat"}}}.ChatInstruction()
	if !strings.Contains(withMemory, "for this conversation: pet: cat") {
		t.Errorf("Expected chat memory clause, got: %s", withMemory)
	}
}
