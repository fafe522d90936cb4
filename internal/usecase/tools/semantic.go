package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/campusagent/internal/domain"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
)

// DefaultSemanticTopK is the result count when the call does not set topK.
const DefaultSemanticTopK = 5

// Querier answers semantic queries over a user's index.
type Querier interface {
	Query(ctx context.Context, userID, text string, topK int) ([]result.Result, error)
}

// EmailHit is one semantic search hit as returned to the model.
type EmailHit struct {
	ID         string            `json:"emailId"`
	Subject    string            `json:"subject"`
	From       string            `json:"from"`
	Snippet    string            `json:"snippet"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// HitsFromResults converts ranked results into mail hits.
func HitsFromResults(results []result.Result) []EmailHit {
	hits := make([]EmailHit, len(results))
	for i := range results {
		r := &results[i]
		hits[i] = EmailHit{
			ID:         r.ID(),
			Subject:    r.Field(domdoc.FieldSubject),
			From:       r.Field(domdoc.FieldFrom),
			Snippet:    r.Field(domdoc.FieldBody),
			Similarity: r.Similarity(),
			Metadata:   r.Metadata(),
		}
	}
	return hits
}

// SemanticSearchHandler serves SemanticSearchTool from q.
func SemanticSearchHandler(q Querier) tool.Handler {
	return func(ctx context.Context, userID string, params map[string]any) (any, error) {
		query, _ := params["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
		}
		topK, err := intParam(params, "topK", DefaultSemanticTopK)
		if err != nil {
			return nil, err
		}

		results, err := q.Query(ctx, userID, query, topK)
		if err != nil {
			return nil, err
		}
		return HitsFromResults(results), nil
	}
}

// intParam reads an integer argument. Backends deliver JSON numbers as float64,
// some deliver numeric strings.
func intParam(params map[string]any, key string, def int) (int, error) {
	switch v := params[key].(type) {
	case nil:
		return def, nil
	case float64:
		if v <= 0 {
			return def, nil
		}
		return int(v), nil
	case int:
		if v <= 0 {
			return def, nil
		}
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidQuery, key, v)
		}
		if n <= 0 {
			return def, nil
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %s has unsupported type %T", domain.ErrInvalidQuery, key, params[key])
}
