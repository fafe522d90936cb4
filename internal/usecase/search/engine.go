package search

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/kailas-cloud/campusagent/internal/domain"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|), or 0 when either vector has zero norm.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch("", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every document against query and returns the topK most similar,
// highest first. Ties keep the input order. All dimensions are checked before any
// scoring, so a mismatch never yields a partial result; the error names every
// mismatched document.
func Rank(query []float32, docs []domdoc.Document, topK int) ([]result.Result, error) {
	var mismatches []error
	for i := range docs {
		if got := len(docs[i].Vector()); got != len(query) {
			mismatches = append(mismatches, domain.NewDimensionMismatch(docs[i].ID(), len(query), got))
		}
	}
	if len(mismatches) > 0 {
		return nil, errors.Join(mismatches...)
	}
	if topK <= 0 || len(docs) == 0 {
		return []result.Result{}, nil
	}

	scored := make([]result.Result, len(docs))
	for i := range docs {
		sim, _ := CosineSimilarity(query, docs[i].Vector()) // dimensions validated above
		scored[i] = result.New(docs[i].ID(), sim, docs[i].Fields(), docs[i].Metadata())
	}

	slices.SortStableFunc(scored, func(a, b result.Result) int {
		return cmp.Compare(b.Similarity(), a.Similarity())
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
