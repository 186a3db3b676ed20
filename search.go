package ticketeta

import (
	"context"
	"errors"
	"sync"

	"github.com/lucas-stellet/ticketeta/embed"
)

// Family groups backends whose scores are comparable.
type Family string

const (
	FamilyVector Family = "vector"
	FamilyText   Family = "text"
)

// Policy decides when a tier's matches are good enough to estimate from.
// A match is kept when its score is strictly greater than Threshold; the
// tier qualifies when at least Quorum matches are kept.
type Policy struct {
	Threshold float64 `json:"threshold"`
	Quorum    int     `json:"quorum"`
}

var (
	// HighConfidence applies to cosine similarities from vector backends.
	HighConfidence = Policy{Threshold: 0.75, Quorum: 3}
	// MediumConfidence is the relaxed vector policy.
	MediumConfidence = Policy{Threshold: 0.65, Quorum: 1}
	// TextRelevance applies to squashed text relevance scores.
	TextRelevance = Policy{Threshold: 0, Quorum: 1}
)

// DefaultSearchLimit is the default number of candidates requested per backend.
const DefaultSearchLimit = 15

var errNoEmbedding = errors.New("no query embedding available")

// Query is a single request's search input, shared across tiers. The query
// embedding is computed lazily at most once and reused by every backend.
type Query struct {
	Text       string
	LocationID *int
	Limit      int

	embedFn embed.EmbeddingFunc

	mu     sync.Mutex
	done   bool
	vector []float32
	err    error
}

// NewQuery builds a query for text filtered to locationID (nil means all
// locations). embedFn may be nil when no embedding provider is configured.
func NewQuery(text string, locationID *int, limit int, embedFn embed.EmbeddingFunc) *Query {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Query{Text: text, LocationID: locationID, Limit: limit, embedFn: embedFn}
}

// Embedding returns the query vector, computing it on first use. A provider
// failure is remembered so later tiers do not retry it.
func (q *Query) Embedding(ctx context.Context) ([]float32, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.done {
		return q.vector, q.err
	}
	if q.embedFn == nil {
		return nil, errNoEmbedding
	}

	vec, err := q.embedFn(ctx, q.Text)
	if err != nil && ctx.Err() != nil {
		// Cancellation is the caller's problem, not the provider's.
		return nil, err
	}
	if err == nil && len(vec) == 0 {
		err = errNoEmbedding
	}
	q.done = true
	q.vector, q.err = vec, err
	return vec, err
}

// Unfiltered returns a copy of the query without the location filter that
// shares the memoized embedding.
func (q *Query) Unfiltered() *Query {
	return &Query{Text: q.Text, Limit: q.Limit, embedFn: q.sharedEmbed}
}

func (q *Query) sharedEmbed(ctx context.Context, _ string) ([]float32, error) {
	return q.Embedding(ctx)
}
