// Package chat holds the outcome of one assistant turn.
package chat

import "github.com/kailas-cloud/campusagent/internal/domain/tool"

// Path records which branch of the turn pipeline produced the reply.
type Path string

// Turn paths.
const (
	PathTool      Path = "tool"
	PathRetrieval Path = "retrieval"
	PathDirect    Path = "direct"
	PathError     Path = "error"
)

// ToolCall records one dispatched tool with its arguments and outcome.
type ToolCall struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
	Result tool.Result    `json:"result"`
}

// Reply is the assistant's answer to a turn. It is always produced, even on failure.
type Reply struct {
	Text          string     `json:"text"`
	ToolCalls     []ToolCall `json:"tool_calls"`
	RetrievalUsed bool       `json:"retrieval_used"`
	Path          Path       `json:"-"`
}

// ErrorReply renders a fault as a user-visible apology.
func ErrorReply(err error) Reply {
	return Reply{
		Text:      "Sorry, I encountered an error: " + err.Error(),
		ToolCalls: []ToolCall{},
		Path:      PathError,
	}
}
