package ticketeta

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Backend is a retrieval backend consulted by one tier.
type Backend interface {
	Name() string
	Family() Family
	// Search returns matches ordered by descending score, at most q.Limit.
	// Failures are *BackendError values.
	Search(ctx context.Context, q *Query) ([]ScoredMatch, error)
}

// IndexStats summarizes a backing index for health reporting.
type IndexStats struct {
	Count   int  `json:"count"`
	Healthy bool `json:"healthy"`
}

// VectorRecord is a candidate together with its embedding.
type VectorRecord struct {
	Candidate
	Vector []float32
}

// VectorHit is a vector search hit. Distance is nil when the store did not
// report one.
type VectorHit struct {
	Candidate
	Distance *float64
}

// VectorIndex is a vector store holding ticket embeddings.
type VectorIndex interface {
	Upsert(ctx context.Context, records []VectorRecord) error
	SearchNear(ctx context.Context, vector []float32, locationID *int, limit int) ([]VectorHit, error)
	Stats(ctx context.Context) (IndexStats, error)
	Close() error
}

// TextQuery is a search against a TextIndex.
type TextQuery struct {
	Text       string
	LocationID *int
	// RequireAll demands every query term match.
	RequireAll bool
	// Vector and VectorField add a nearest-neighbour clause when both are set.
	Vector      []float32
	VectorField string
	Limit       int
}

// TextHit is a text search hit with native relevance score.
type TextHit struct {
	Candidate
	Score float64
}

// Document is a ticket uploaded to a TextIndex.
type Document struct {
	Candidate
	Vector      []float32
	VectorField string
}

// TextIndex is a full-text index over tickets, optionally holding vectors.
type TextIndex interface {
	Search(ctx context.Context, q TextQuery) ([]TextHit, error)
	Upload(ctx context.Context, docs []Document) error
	HasVectorField(ctx context.Context, name string) bool
	Stats(ctx context.Context) (IndexStats, error)
	Close() error
}

// DefaultVectorFields are probed, in order, to find an index's embedding field.
var DefaultVectorFields = []string{
	"content_vector",
	"vector",
	"embedding",
	"content_embedding",
	"text_vector",
	"embeddings",
}

// VectorStore adapts a VectorIndex to the Backend interface.
type VectorStore struct {
	name  string
	index VectorIndex
}

var _ Backend = (*VectorStore)(nil)

// NewVectorStore wraps index as a named vector backend.
func NewVectorStore(name string, index VectorIndex) *VectorStore {
	return &VectorStore{name: name, index: index}
}

func (vs *VectorStore) Name() string   { return vs.name }
func (vs *VectorStore) Family() Family { return FamilyVector }

// Search embeds the query (once per request) and runs a nearest-neighbour
// search. Scores are 1 - distance clamped to [0,1].
func (vs *VectorStore) Search(ctx context.Context, q *Query) ([]ScoredMatch, error) {
	vec, err := q.Embedding(ctx)
	if err != nil {
		return nil, unavailable(vs.name, fmt.Errorf("embed query: %w", err))
	}

	hits, err := vs.index.SearchNear(ctx, vec, q.LocationID, q.Limit)
	if err != nil {
		return nil, classify(vs.name, err)
	}

	matches := make([]ScoredMatch, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, ScoredMatch{Candidate: h.Candidate, Score: similarity(h.Distance)})
	}
	return rank(matches, q.Limit), nil
}

const defaultProbeTimeout = 10 * time.Second

// TextMode selects how a TextBackend queries its index.
type TextMode string

const (
	TextModeHybrid     TextMode = "hybrid"
	TextModeText       TextMode = "text"
	TextModeUnfiltered TextMode = "unfiltered"
)

// TextBackend adapts a TextIndex to the Backend interface in one of three
// modes. Hybrid mode adds a vector clause when the index exposes an
// embedding field; the field is discovered once and remembered.
type TextBackend struct {
	name   string
	mode   TextMode
	index  TextIndex
	fields []string

	probe        singleflight.Group
	probeTimeout time.Duration
	probeMu      sync.Mutex
	probed       bool
	foundField   string
}

var _ Backend = (*TextBackend)(nil)

// NewTextBackend wraps index. vectorFields lists candidate embedding field
// names for hybrid mode; nil means DefaultVectorFields.
func NewTextBackend(name string, mode TextMode, index TextIndex, vectorFields []string) *TextBackend {
	if len(vectorFields) == 0 {
		vectorFields = DefaultVectorFields
	}
	return &TextBackend{name: name, mode: mode, index: index, fields: vectorFields, probeTimeout: defaultProbeTimeout}
}

func (tb *TextBackend) Name() string   { return tb.name }
func (tb *TextBackend) Family() Family { return FamilyText }

// Search runs the mode's query. Hybrid mode silently degrades to text-only
// scoring when no vector field exists or the query cannot be embedded.
func (tb *TextBackend) Search(ctx context.Context, q *Query) ([]ScoredMatch, error) {
	if normalizeDescription(q.Text) == "" {
		return nil, &BackendError{Backend: tb.name, Kind: ErrQuery, Err: errors.New("empty query text")}
	}

	tq := TextQuery{Text: q.Text, LocationID: q.LocationID, Limit: q.Limit}
	switch tb.mode {
	case TextModeHybrid:
		if field := tb.vectorField(ctx); field != "" {
			if vec, err := q.Embedding(ctx); err == nil {
				tq.Vector, tq.VectorField = vec, field
			}
		}
	case TextModeText:
		tq.RequireAll = true
	case TextModeUnfiltered:
		tq.LocationID = nil
	}

	hits, err := tb.index.Search(ctx, tq)
	if err != nil {
		return nil, classify(tb.name, err)
	}

	matches := make([]ScoredMatch, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, ScoredMatch{Candidate: h.Candidate, Score: squash(h.Score)})
	}
	return rank(matches, q.Limit), nil
}

// vectorField returns the discovered embedding field, probing the index on
// first use. Concurrent first calls share one probe. The probe runs detached
// from the caller's deadline under its own timeout, and a probe cut short by
// that timeout is not remembered.
func (tb *TextBackend) vectorField(ctx context.Context) string {
	tb.probeMu.Lock()
	if tb.probed {
		f := tb.foundField
		tb.probeMu.Unlock()
		return f
	}
	tb.probeMu.Unlock()

	v, _, _ := tb.probe.Do("probe", func() (any, error) {
		tb.probeMu.Lock()
		if tb.probed {
			defer tb.probeMu.Unlock()
			return tb.foundField, nil
		}
		tb.probeMu.Unlock()

		timeout := tb.probeTimeout
		if timeout <= 0 {
			timeout = defaultProbeTimeout
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		found := ""
		for _, name := range tb.fields {
			if tb.index.HasVectorField(pctx, name) {
				found = name
				break
			}
		}
		if found == "" && pctx.Err() != nil {
			return "", nil
		}
		tb.probeMu.Lock()
		tb.probed, tb.foundField = true, found
		tb.probeMu.Unlock()
		return found, nil
	})
	return v.(string)
}

// rank sorts by descending score and truncates to limit.
func rank(matches []ScoredMatch, limit int) []ScoredMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
