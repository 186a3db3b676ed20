package ticketeta

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPort int
		wantTLS  bool
		wantErr  bool
	}{
		{"rest port maps to grpc", "http://localhost:6333", "localhost", 6334, false, false},
		{"no port defaults to grpc", "https://xyz.cloud.qdrant.io", "xyz.cloud.qdrant.io", 6334, true, false},
		{"explicit grpc port", "http://qdrant:6334", "qdrant", 6334, false, false},
		{"custom port kept", "http://qdrant:7000", "qdrant", 7000, false, false},
		{"missing host", "localhost", "", 0, false, true},
		{"bad port", "http://qdrant:abc", "", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, useTLS, err := parseQdrantURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
			assert.Equal(t, tt.wantTLS, useTLS)
		})
	}
}

func TestNewQdrantIndexRequiresCollection(t *testing.T) {
	_, err := NewQdrantIndex(QdrantConfig{URL: "http://localhost:6333"}, nil)
	assert.Error(t, err)
}

func TestQdrantPointIDStable(t *testing.T) {
	a := &QdrantIndex{collection: "active"}
	b := &QdrantIndex{collection: "historic"}

	assert.Equal(t, a.pointID("101"), a.pointID("101"))
	assert.NotEqual(t, a.pointID("101"), a.pointID("102"))
	assert.NotEqual(t, a.pointID("101"), b.pointID("101"))
}

func TestQdrantPayloadRoundTrip(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		FieldTicketID:      "101",
		FieldLocationID:    int64(3),
		FieldEstimatedTime: 4.5,
		"escalated":        true,
	})

	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		fields[k] = payloadValue(v)
	}
	c := candidateFromFields("ignored-uuid", fields)

	assert.Equal(t, "101", c.TicketID)
	assert.Equal(t, 3, c.LocationID)
	assert.Equal(t, 4.5, c.Hours(FieldEstimatedTime))
	assert.Equal(t, true, c.Fields["escalated"])
}

func TestPayloadScalar(t *testing.T) {
	tests := []struct {
		in   any
		want any
		ok   bool
	}{
		{"x", "x", true},
		{7, int64(7), true},
		{int32(7), int64(7), true},
		{float32(1.5), 1.5, true},
		{2.5, 2.5, true},
		{false, false, true},
		{[]string{"a"}, nil, false},
		{nil, nil, false},
	}
	for _, tt := range tests {
		got, ok := payloadScalar(tt.in)
		assert.Equal(t, tt.ok, ok, "payloadScalar(%v)", tt.in)
		assert.Equal(t, tt.want, got, "payloadScalar(%v)", tt.in)
	}
}

func TestNewPgVectorIndexValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewPgVectorIndex(ctx, PgVectorConfig{DSN: "postgres://localhost/tickets"}, nil)
	assert.ErrorContains(t, err, "table is required")

	_, err = NewPgVectorIndex(ctx, PgVectorConfig{DSN: "::not a dsn::", Table: "tickets"}, nil)
	assert.ErrorContains(t, err, "parse pool DSN")
}
