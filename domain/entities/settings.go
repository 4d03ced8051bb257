package entities

import (
	"fmt"
	"strings"
)

// MemoryFact is one user-configured key/value fact the assistant should
// remember across turns.
type MemoryFact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Settings carries the personalization inputs for a session. It is
// read-only for the session's lifetime.
type Settings struct {
	UserName string       `json:"userName,omitempty"`
	Memory   []MemoryFact `json:"memory,omitempty"`
	TTSVoice string       `json:"ttsVoice,omitempty"`
}

// memoryFacts renders the non-empty facts as "key: value; key: value"
func (s Settings) memoryFacts() string {
	var facts []string
	for _, mem := range s.Memory {
		if mem.Key != "" && mem.Value != "" {
			facts = append(facts, fmt.Sprintf("%s: %s", mem.Key, mem.Value))
		}
	}
	return strings.Join(facts, "; ")
}

// VoiceInstruction builds the system instruction for a hands-free voice
// session: the persona preamble, a personalization clause when a user name
// is configured, and a clause enumerating the configured memory facts.
func (s Settings) VoiceInstruction() string {
	instruction := "You are a helpful AI assistant named Study AI. You are in a hands-free voice conversation. It's very important that you remember the context of the conversation and build upon previous questions and answers to provide a continuous dialogue. Use your tools to find the latest information when needed."

	if s.UserName != "" {
		instruction = fmt.Sprintf("You are a helpful AI assistant named Study AI. The user's name is %s. Please be friendly and address them by their name where it feels natural. You are in a hands-free voice conversation. It's very important that you remember the context of the conversation and build upon previous questions and answers to provide a continuous, personal dialogue. Use your tools to find the latest information when needed.", s.UserName)
	}

	if facts := s.memoryFacts(); facts != "" {
		instruction += fmt.Sprintf("\n\nAdditionally, remember these key facts about the user: %s. Use these facts to tailor your responses.", facts)
	}

	return instruction
}

// ChatInstruction builds the system instruction for the request/response
// text-generation modes.
func (s Settings) ChatInstruction() string {
	instruction := "You are a helpful AI assistant named Study AI. It's very important that you remember the context of the conversation and build upon previous questions and answers to provide a continuous dialogue."

	if s.UserName != "" {
		instruction = fmt.Sprintf("You are a helpful AI assistant named Study AI. The user's name is %s. Please be friendly and address them by their name where it feels natural. It's very important that you remember the context of the conversation and build upon previous questions and answers to provide a continuous, personal dialogue.", s.UserName)
	}

	if facts := s.memoryFacts(); facts != "" {
		instruction += fmt.Sprintf("\n\nAdditionally, remember these key facts about the user for this conversation: %s. Use these facts to tailor your responses.", facts)
	}

	return instruction
}
