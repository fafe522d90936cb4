package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a document that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidQuery signals a search query that cannot be answered.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrToolNotFound signals a dispatch to an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool signals a second registration under the same name.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrInvalidTool signals a malformed tool definition.
	ErrInvalidTool = errors.New("invalid tool definition")
	// ErrInternalToolNotImplemented signals an internal tool without a handler.
	ErrInternalToolNotImplemented = errors.New("internal tool not implemented")
	// ErrExternalExecution signals a failure reported by the external action executor.
	ErrExternalExecution = errors.New("external execution error")
	// ErrNoActiveConnection signals that the user has no connected account for an app.
	ErrNoActiveConnection = errors.New("no active connection")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generative backend failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrEmptyConversation signals a turn without any user message.
	ErrEmptyConversation = errors.New("empty conversation")
)

// DimensionMismatchError wraps ErrVectorDimMismatch with the offending operand.
type DimensionMismatchError struct {
	DocumentID string
	Want       int
	Got        int
}

func (e *DimensionMismatchError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("%s: want %d, got %d", ErrVectorDimMismatch.Error(), e.Want, e.Got)
	}
	return fmt.Sprintf("%s: document %q has %d dimensions, want %d",
		ErrVectorDimMismatch.Error(), e.DocumentID, e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(documentID string, want, got int) error {
	return &DimensionMismatchError{DocumentID: documentID, Want: want, Got: got}
}

// NoActiveConnectionError wraps ErrNoActiveConnection with the app that lacks a connection.
type NoActiveConnectionError struct {
	App string
}

func (e *NoActiveConnectionError) Error() string {
	return fmt.Sprintf("No active %s connection for user", e.App)
}

func (e *NoActiveConnectionError) Unwrap() error { return ErrNoActiveConnection }
