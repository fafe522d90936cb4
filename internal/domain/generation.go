package domain

import (
	"context"
	"iter"
)

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one conversation entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FunctionDeclaration describes a callable tool to a generative backend.
// Parameters is a JSON Schema object.
type FunctionDeclaration struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// FunctionCall is a backend's request to invoke a declared function.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// GenerateResult is the outcome of a tool-aware generation: either a function
// call or plain text, never both.
type GenerateResult struct {
	Text string
	Call *FunctionCall
}

// HasCall reports whether the backend asked for a function invocation.
func (r GenerateResult) HasCall() bool { return r.Call != nil && r.Call.Name != "" }

// Generator is the generative backend contract.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	GenerateWithTools(ctx context.Context, prompt string, tools []FunctionDeclaration) (GenerateResult, error)
}

// StreamGenerator streams generated text chunk by chunk. Iteration stops early
// when ctx is cancelled; the error is yielded as the last element.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, messages []Message) iter.Seq2[string, error]
}

// LastUserMessage returns the content of the latest user message, if any.
func LastUserMessage(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}
