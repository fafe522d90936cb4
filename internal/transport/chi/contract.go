package chi

import (
	"context"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/chat"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/syncstate"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/transport/composio"
	healthuc "github.com/kailas-cloud/campusagent/internal/usecase/health"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
	"github.com/kailas-cloud/campusagent/internal/usecase/mailsync"
	"github.com/kailas-cloud/campusagent/internal/usecase/triage"
	usageuc "github.com/kailas-cloud/campusagent/internal/usecase/usage"
)

// Agent answers conversation turns.
type Agent interface {
	RunTurn(ctx context.Context, userID string, conv []domain.Message) chat.Reply
	StreamTurn(ctx context.Context, userID string, conv []domain.Message, emit func(string) error) chat.Reply
}

// ToolCatalog exposes the registered tool manifest.
type ToolCatalog interface {
	Definitions() []tool.Definition
}

// Indexer stores documents in a user's partition.
type Indexer interface {
	Index(ctx context.Context, userID string, inputs []index.Input) (index.Report, error)
	Stats(ctx context.Context, userID string) (index.Stats, error)
}

// Searcher ranks a user's documents against a text query.
type Searcher interface {
	Query(ctx context.Context, userID, text string, topK int) ([]result.Result, error)
}

// MailSyncer pulls new mail into the index.
type MailSyncer interface {
	Sync(ctx context.Context, userID string) (mailsync.Report, error)
	Status(ctx context.Context, userID string) (syncstate.State, error)
}

// Triager analyzes a single mail.
type Triager interface {
	Analyze(ctx context.Context, subject, sender, body string) triage.Analysis
}

// Summarizer digests a single mail.
type Summarizer interface {
	Summarize(ctx context.Context, subject, sender, body string) (triage.Summary, error)
}

// ConnectionLister lists a user's connected accounts at the action executor.
type ConnectionLister interface {
	Connections(ctx context.Context, userID string) ([]composio.Connection, error)
}

// HealthChecker aggregates dependency probes.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding budget consumption.
type UsageReporter interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}
