package agent

import (
	"context"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
)

// Dispatcher runs a tool call and reports the outcome as data.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID, name string, params map[string]any) tool.Result
}

// Catalog lists the functions offered to the backend during intent detection.
type Catalog interface {
	Declarations() []domain.FunctionDeclaration
}

// Retriever ranks a user's indexed documents against a query.
type Retriever interface {
	Query(ctx context.Context, userID, text string, topK int) ([]result.Result, error)
}
