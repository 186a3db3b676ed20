package ticketeta

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// fakeVectorIndex serves canned hits and records writes.
type fakeVectorIndex struct {
	mu       sync.Mutex
	hits     []VectorHit
	err      error
	calls    int
	lastLoc  *int
	upserted []VectorRecord
}

func (f *fakeVectorIndex) Upsert(_ context.Context, records []VectorRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeVectorIndex) SearchNear(ctx context.Context, _ []float32, locationID *int, limit int) ([]VectorHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastLoc = locationID
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[:min(limit, len(f.hits))], nil
}

func (f *fakeVectorIndex) Stats(context.Context) (IndexStats, error) {
	if f.err != nil {
		return IndexStats{}, f.err
	}
	return IndexStats{Count: len(f.hits), Healthy: true}, nil
}

func (f *fakeVectorIndex) Close() error { return nil }

// fakeTextIndex answers by location so filtered and unfiltered tiers differ.
type fakeTextIndex struct {
	mu       sync.Mutex
	hits     []TextHit
	err      error
	fields   map[string]bool
	probes   int
	queries  []TextQuery
	uploaded []Document
	listed   []Candidate
	listErr  error
}

func (f *fakeTextIndex) Search(_ context.Context, q TextQuery) ([]TextHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []TextHit
	for _, h := range f.hits {
		if q.LocationID != nil && h.LocationID != *q.LocationID {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeTextIndex) Upload(_ context.Context, docs []Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, docs...)
	return nil
}

func (f *fakeTextIndex) HasVectorField(_ context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.fields[name]
}

func (f *fakeTextIndex) Stats(context.Context) (IndexStats, error) {
	return IndexStats{Count: len(f.hits), Healthy: true}, nil
}

func (f *fakeTextIndex) List(_ context.Context, limit int) ([]Candidate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed[:min(limit, len(f.listed))], nil
}

func (f *fakeTextIndex) Close() error { return nil }

// memCache is an in-memory Cache that can be switched into an outage.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	down    bool
	writes  int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, false, errors.New("connection refused")
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memCache) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errors.New("connection refused")
	}
	m.writes++
	m.entries[key] = value
	return nil
}

func (m *memCache) Close() error { return nil }

// countingEmbed returns a fixed vector and counts calls.
type countingEmbed struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingEmbed) fn(ctx context.Context, _ string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func dist(d float64) *float64 { return &d }

func vectorHit(id string, distance float64, hours any) VectorHit {
	return VectorHit{
		Candidate: Candidate{
			TicketID:    id,
			Description: "ticket " + id,
			Fields:      map[string]any{FieldEstimatedTime: hours, FieldActualTime: hours},
		},
		Distance: dist(distance),
	}
}

func textHit(id string, loc int, score float64, hours any) TextHit {
	return TextHit{
		Candidate: Candidate{
			TicketID:    id,
			LocationID:  loc,
			Description: strings.Repeat("printer jam ", 3) + id,
			Fields:      map[string]any{FieldEstimatedTime: hours},
		},
		Score: score,
	}
}

func match(score float64, hours any) ScoredMatch {
	return ScoredMatch{
		Candidate: Candidate{Fields: map[string]any{FieldEstimatedTime: hours}},
		Score:     score,
	}
}
