package ticketeta

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/singleflight"
)

// QdrantConfig holds configuration for connecting to Qdrant.
type QdrantConfig struct {
	URL        string // e.g. "https://xyz.cloud.qdrant.io:6333" or "http://localhost:6333"
	APIKey     string
	Collection string
	Dims       uint64
}

// QdrantIndex implements VectorIndex backed by a Qdrant collection.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dims       uint64
	logger     *slog.Logger

	healthGroup singleflight.Group
	healthErr   atomic.Value // stores *error
	healthAt    atomic.Int64 // unix nanos of last check
}

var _ VectorIndex = (*QdrantIndex)(nil)

// parseQdrantURL extracts host, port, and TLS flag from a Qdrant URL.
// The REST port 6333 is mapped to the gRPC port 6334.
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	port = 6334
	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port in qdrant URL: %q", portStr)
		}
		if p != 6333 {
			port = p
		}
	}
	return host, port, useTLS, nil
}

// NewQdrantIndex connects to Qdrant over gRPC.
func NewQdrantIndex(cfg QdrantConfig, logger *slog.Logger) (*QdrantIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dims,
		logger:     logger.With("collection", cfg.Collection),
	}, nil
}

// EnsureCollection creates the collection when missing and makes sure the
// location payload index exists.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}

	if !exists {
		if q.dims == 0 {
			return fmt.Errorf("create collection %q: dimensions not configured", q.collection)
		}
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     q.dims,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("create collection %q: %w", q.collection, err)
		}
		q.logger.Info("qdrant: created collection", "dims", q.dims)
	}

	intType := qdrant.FieldType_FieldTypeInteger
	if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      FieldLocationID,
		FieldType:      &intType,
	}); err != nil {
		return fmt.Errorf("ensure index on %q: %w", FieldLocationID, err)
	}
	return nil
}

// SearchNear returns the nearest tickets, optionally restricted to a location.
// Qdrant reports cosine similarity; the distance is 1 - similarity.
func (q *QdrantIndex) SearchNear(ctx context.Context, vector []float32, locationID *int, limit int) ([]VectorHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var filter *qdrant.Filter
	if locationID != nil {
		filter = &qdrant.Filter{Must: []*qdrant.Condition{
			qdrant.NewMatchInt(FieldLocationID, int64(*locationID)),
		}}
	}

	fetchLimit := uint64(limit) //nolint:gosec // bounded by caller
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vector),
		Filter:         filter,
		Limit:          &fetchLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]VectorHit, 0, len(scored))
	for _, sp := range scored {
		fields := make(map[string]any, len(sp.Payload))
		for k, v := range sp.Payload {
			fields[k] = payloadValue(v)
		}
		distance := 1 - float64(sp.Score)
		hits = append(hits, VectorHit{
			Candidate: candidateFromFields(sp.Id.GetUuid(), fields),
			Distance:  &distance,
		})
	}
	return hits, nil
}

// Upsert inserts or replaces points. Point IDs are derived from the ticket ID
// so re-recording a ticket overwrites it.
func (q *QdrantIndex) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload := map[string]any{
			FieldTicketID:    r.TicketID,
			FieldLocationID:  int64(r.LocationID),
			FieldDescription: r.Description,
		}
		for k, v := range r.Fields {
			if pv, ok := payloadScalar(v); ok {
				payload[k] = pv
			}
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(q.pointID(r.TicketID).String()),
			Vectors: qdrant.NewVectorsDense(r.Vector),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert %d points: %w", len(records), err)
	}
	return nil
}

// Stats counts points and reports cached health.
func (q *QdrantIndex) Stats(ctx context.Context) (IndexStats, error) {
	if err := q.Healthy(ctx); err != nil {
		return IndexStats{}, err
	}
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return IndexStats{}, fmt.Errorf("qdrant count: %w", err)
	}
	return IndexStats{Count: int(n), Healthy: true}, nil //nolint:gosec
}

// Healthy returns nil if Qdrant is reachable. Results are cached for 5 seconds
// and concurrent checks share one gRPC call.
func (q *QdrantIndex) Healthy(_ context.Context) error {
	if time.Since(time.Unix(0, q.healthAt.Load())) < 5*time.Second {
		return q.loadHealthErr()
	}

	result, _, _ := q.healthGroup.Do("health", func() (any, error) {
		checkCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if _, err := q.client.HealthCheck(checkCtx); err != nil {
			q.storeHealthErr(fmt.Errorf("qdrant unhealthy: %w", err))
		} else {
			q.storeHealthErr(nil)
		}
		q.healthAt.Store(time.Now().UnixNano())
		return q.loadHealthErr(), nil
	})
	if result == nil {
		return nil
	}
	return result.(error)
}

func (q *QdrantIndex) storeHealthErr(err error) {
	q.healthErr.Store(&err)
}

func (q *QdrantIndex) loadHealthErr() error {
	v := q.healthErr.Load()
	if v == nil {
		return nil
	}
	return *v.(*error)
}

// Close shuts down the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func (q *QdrantIndex) pointID(ticketID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(q.collection+"/"+ticketID))
}

// payloadValue unwraps a Qdrant payload value into a plain Go value.
func payloadValue(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	default:
		return nil
	}
}

// payloadScalar narrows a field value to a type Qdrant payloads accept.
func payloadScalar(v any) (any, bool) {
	switch t := v.(type) {
	case string, bool, int64, float64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float32:
		return float64(t), true
	default:
		return nil, false
	}
}
