// Package mailsync pulls a user's recent mail through the tool executor and
// indexes it for retrieval.
package mailsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
	domsync "github.com/kailas-cloud/campusagent/internal/domain/syncstate"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/logger"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
)

// FetchAction is the external action that lists mail.
const FetchAction = "GMAIL_FETCH_EMAILS"

const (
	// DefaultMaxEmails bounds one sync.
	DefaultMaxEmails = 100
	// DefaultInitialLookback is how far back the first sync reaches.
	DefaultInitialLookback = 30 * 24 * time.Hour
)

// Config tunes a sync. Zero values fall back to the defaults.
type Config struct {
	MaxEmails       int
	InitialLookback time.Duration
}

// Report summarizes one sync.
type Report struct {
	Synced    int    `json:"synced"`
	Deadlines int    `json:"deadlines"`
	Alerts    int    `json:"alerts"`
	Documents int    `json:"documents"`
	Initial   bool   `json:"initial"`
	Query     string `json:"query"`
}

// Service synchronizes mail into the document index.
type Service struct {
	exec   tool.Executor
	index  Indexer
	states StateStore
	cfg    Config
	now    func() time.Time
}

// New creates a sync service.
func New(exec tool.Executor, idx Indexer, states StateStore, cfg Config) *Service {
	if cfg.MaxEmails <= 0 {
		cfg.MaxEmails = DefaultMaxEmails
	}
	if cfg.InitialLookback <= 0 {
		cfg.InitialLookback = DefaultInitialLookback
	}
	return &Service{exec: exec, index: idx, states: states, cfg: cfg, now: time.Now}
}

// Sync fetches mail newer than the last checkpoint (or the initial lookback),
// indexes it in one batch and advances the checkpoint.
func (s *Service) Sync(ctx context.Context, userID string) (Report, error) {
	log := logger.FromContext(ctx).With(zap.String("user_id", userID))
	started := s.now()

	prev, err := s.states.Get(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("read sync state: %w", err)
	}

	report := Report{Initial: !prev.Synced()}
	since := prev.LastSync
	if report.Initial {
		since = started.Add(-s.cfg.InitialLookback)
	}
	report.Query = fmt.Sprintf("after:%d", since.Unix())

	res, err := s.exec.Execute(ctx, userID, FetchAction, map[string]any{
		"query":           report.Query,
		"max_results":     s.cfg.MaxEmails,
		"user_id":         "me",
		"include_payload": true,
	})
	if err != nil {
		return Report{}, fmt.Errorf("fetch mail: %w", err)
	}
	if !res.Success {
		return Report{}, fmt.Errorf("fetch mail: %w", res.Err())
	}

	msgs, err := parseMessages(res.Data)
	if err != nil {
		return Report{}, err
	}
	if len(msgs) == 0 {
		log.Info("Mail already up to date", zap.String("query", report.Query))
		return report, nil
	}

	inputs, documents := toInputs(msgs)
	indexed, err := s.index.Index(ctx, userID, inputs)
	if err != nil {
		return Report{}, fmt.Errorf("index mail: %w", err)
	}

	report.Synced = indexed.Indexed
	report.Deadlines = indexed.Deadlines
	report.Alerts = indexed.Alerts
	report.Documents = documents

	st := domsync.State{
		LastSync:       started,
		EmailsSynced:   report.Synced,
		DeadlinesFound: report.Deadlines,
		AlertsFound:    report.Alerts,
		DocumentsFound: report.Documents,
	}
	if err := s.states.Put(ctx, userID, st); err != nil {
		return Report{}, fmt.Errorf("save sync state: %w", err)
	}

	log.Info("Mail synced",
		zap.Bool("initial", report.Initial),
		zap.Int("emails", report.Synced),
		zap.Int("deadlines", report.Deadlines),
		zap.Int("alerts", report.Alerts),
		zap.Int("documents", report.Documents),
		zap.Duration("duration", s.now().Sub(started)),
	)
	return report, nil
}

// Status returns the last checkpoint. State.Synced() is false before the first sync.
func (s *Service) Status(ctx context.Context, userID string) (domsync.State, error) {
	st, err := s.states.Get(ctx, userID)
	if err != nil {
		return domsync.State{}, fmt.Errorf("read sync state: %w", err)
	}
	return st, nil
}

// toInputs converts fetched mail into index inputs, dropping repeated ids.
func toInputs(msgs []message) ([]index.Input, int) {
	inputs := make([]index.Input, 0, len(msgs))
	seen := make(map[string]struct{}, len(msgs))
	documents := 0

	for i := range msgs {
		m := &msgs[i]
		id := m.id()
		if id == "" {
			id = uuid.NewString()
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		fields := map[string]string{
			domdoc.FieldSubject: m.subject(),
			domdoc.FieldFrom:    m.from(),
			domdoc.FieldBody:    m.body(),
		}
		if d := m.date(); d != "" {
			fields[domdoc.FieldDate] = d
		}
		inputs = append(inputs, index.Input{ID: id, Fields: fields})
		documents += m.documents()
	}
	return inputs, documents
}
