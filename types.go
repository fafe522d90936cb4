package campusagent

import (
	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/chat"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
)

type (
	// Embedder converts text to vector embeddings.
	// Implementations that also provide BatchEmbed are used for bulk indexing.
	Embedder = domain.Embedder
	// EmbeddingResult carries the embedding vector and token counts.
	EmbeddingResult = domain.EmbeddingResult
	// Generator is the generative backend.
	Generator = domain.Generator
	// FunctionDeclaration describes a tool to a Generator.
	FunctionDeclaration = domain.FunctionDeclaration
	// FunctionCall is a Generator's request to invoke a tool.
	FunctionCall = domain.FunctionCall
	// GenerateResult is either a FunctionCall or plain text.
	GenerateResult = domain.GenerateResult
	// ToolExecutor runs external actions on behalf of a user.
	ToolExecutor = tool.Executor
	// ToolResult is the outcome of one external action.
	ToolResult = tool.Result
	// Tool describes one tool the assistant can call.
	Tool = tool.Definition

	// Message is one conversation entry.
	Message = domain.Message
	// Role identifies the author of a message.
	Role = domain.Role
	// Reply is the assistant's answer for one turn.
	Reply = chat.Reply

	// Document is a document to index.
	Document = index.Input
	// IndexReport summarizes one IndexDocuments call.
	IndexReport = index.Report
)

// Message roles.
const (
	RoleUser      = domain.RoleUser
	RoleAssistant = domain.RoleAssistant
	RoleSystem    = domain.RoleSystem
)

// Hit is one semantic search match.
type Hit struct {
	ID         string            `json:"id"`
	Similarity float64           `json:"similarity"`
	Fields     map[string]string `json:"fields"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ErrInvalidDocument reports a document or email with no usable content.
var ErrInvalidDocument = domain.ErrInvalidDocument
