// Package index embeds and stores documents in a user's partition.
package index

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/classifier"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
	"github.com/kailas-cloud/campusagent/internal/logger"
)

// MaxBatchSize caps the documents accepted by one Index call.
const MaxBatchSize = 1000

// Input is a document to index.
type Input struct {
	ID       string            `json:"id"`
	Fields   map[string]string `json:"fields"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Report summarizes one Index call.
type Report struct {
	Indexed    int `json:"indexed"`
	Deadlines  int `json:"deadlines"`
	Alerts     int `json:"alerts"`
	Dimensions int `json:"dimensions"`
}

// Stats describes a user's partition.
type Stats struct {
	Documents int `json:"documents"`
}

// Service indexes documents with a single batch embedding call per request.
type Service struct {
	store      DocumentStore
	embed      domain.Embedder
	dimensions int
}

// New creates an index service. dimensions > 0 pins the expected vector length.
func New(store DocumentStore, embed domain.Embedder, dimensions int) *Service {
	return &Service{store: store, embed: embed, dimensions: dimensions}
}

// Index validates, classifies, embeds and stores inputs. Nothing is stored unless every input succeeds.
func (s *Service) Index(ctx context.Context, userID string, inputs []Input) (Report, error) {
	if len(inputs) == 0 {
		return Report{}, nil
	}
	if len(inputs) > MaxBatchSize {
		return Report{}, fmt.Errorf("%w: batch of %d exceeds %d", domain.ErrInvalidDocument, len(inputs), MaxBatchSize)
	}

	docs, report, err := prepare(inputs)
	if err != nil {
		return Report{}, err
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].EmbeddingText()
	}

	start := time.Now()
	res, err := domain.EmbedMany(ctx, s.embed, texts)
	if err != nil {
		return Report{}, fmt.Errorf("embed %d documents: %w", len(docs), err)
	}
	if len(res.Embeddings) != len(docs) {
		return Report{}, fmt.Errorf("%w: got %d embeddings for %d documents",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(docs))
	}
	dims, err := res.Dimensions()
	if err != nil {
		return Report{}, fmt.Errorf("embed %d documents: %w", len(docs), err)
	}
	if s.dimensions > 0 && dims != s.dimensions {
		return Report{}, domain.NewDimensionMismatch(docs[0].ID(), s.dimensions, dims)
	}

	for i := range docs {
		docs[i] = docs[i].WithVector(res.Embeddings[i])
	}
	if err := s.store.PutMany(ctx, userID, docs); err != nil {
		return Report{}, fmt.Errorf("store documents: %w", err)
	}

	report.Indexed = len(docs)
	report.Dimensions = dims

	logger.FromContext(ctx).Info("Documents indexed",
		zap.String("user_id", userID),
		zap.Int("count", report.Indexed),
		zap.Int("deadlines", report.Deadlines),
		zap.Int("alerts", report.Alerts),
		zap.Duration("embed_duration", time.Since(start)),
	)
	return report, nil
}

// Stats returns the size of the user's partition.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	n, err := s.store.Count(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count documents: %w", err)
	}
	return Stats{Documents: n}, nil
}

// prepare builds documents and attaches classifier tags. Caller metadata overrides derived tags.
func prepare(inputs []Input) ([]domdoc.Document, Report, error) {
	var report Report
	docs := make([]domdoc.Document, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))

	for i, in := range inputs {
		if _, dup := seen[in.ID]; dup {
			return nil, Report{}, fmt.Errorf("%w: duplicate id %q at [%d]", domain.ErrInvalidDocument, in.ID, i)
		}
		seen[in.ID] = struct{}{}

		doc, err := domdoc.New(in.ID, in.Fields, nil)
		if err != nil {
			return nil, Report{}, fmt.Errorf("document [%d]: %w", i, err)
		}

		meta := classify(&doc)
		if meta.HasDeadline {
			report.Deadlines++
		}
		if len(meta.AlertTags) > 0 {
			report.Alerts++
		}

		tags := meta.Tags()
		maps.Copy(tags, in.Metadata)
		docs = append(docs, doc.WithMetadata(tags))
	}
	return docs, report, nil
}

func classify(doc *domdoc.Document) classifier.Metadata {
	if doc.IsMail() {
		return classifier.ExtractMetadata(
			doc.Field(domdoc.FieldSubject), doc.Field(domdoc.FieldFrom), doc.Field(domdoc.FieldBody))
	}
	return classifier.ExtractMetadata("", "", doc.EmbeddingText())
}
