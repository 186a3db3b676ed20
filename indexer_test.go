package ticketeta

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	bi, err := NewBleveIndex(IndexerConfig{Path: filepath.Join(t.TempDir(), "tickets.bleve")})
	require.NoError(t, err)
	t.Cleanup(func() { bi.Close() })
	return bi
}

func seedTickets(t *testing.T, bi *BleveIndex) {
	t.Helper()
	records := []TicketRecord{
		{TicketID: 101, CustomerID: 1201, LocationID: 3, Description: "Printer on floor three shows a paper jam error", EstimatedHours: 4},
		{TicketID: 102, CustomerID: 1202, LocationID: 3, Description: "Printer toner is empty and pages come out blank", EstimatedHours: 2},
		{TicketID: 103, CustomerID: 1203, LocationID: 7, Description: "Paper jam in the warehouse label printer", EstimatedHours: 6},
		{TicketID: 104, CustomerID: 1204, LocationID: 3, Description: "VPN disconnects every hour for the finance team", EstimatedHours: 8},
	}
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{Candidate: r.Candidate()}
	}
	require.NoError(t, bi.Upload(context.Background(), docs))
}

func hitIDs(hits []TextHit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.TicketID
	}
	return ids
}

func TestBleveIndexSearchLocationFilter(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)
	ctx := context.Background()

	loc := 3
	hits, err := bi.Search(ctx, TextQuery{Text: "printer paper jam", LocationID: &loc})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"101", "102"}, hitIDs(hits))
	assert.Equal(t, "101", hits[0].TicketID, "best match first")
	assert.Greater(t, hits[0].Score, 0.0)

	hits, err = bi.Search(ctx, TextQuery{Text: "printer paper jam"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"101", "102", "103"}, hitIDs(hits))
}

func TestBleveIndexSearchRequireAll(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)

	hits, err := bi.Search(context.Background(), TextQuery{Text: "printer toner", RequireAll: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, hitIDs(hits))
}

func TestBleveIndexStoredFields(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)

	loc := 7
	hits, err := bi.Search(context.Background(), TextQuery{Text: "warehouse", LocationID: &loc})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	c := hits[0].Candidate
	assert.Equal(t, "103", c.TicketID)
	assert.Equal(t, 7, c.LocationID)
	assert.Equal(t, "Paper jam in the warehouse label printer", c.Description)
	assert.Equal(t, "1203", c.Fields[FieldCustomerID])
	assert.Equal(t, 6.0, c.Hours(FieldEstimatedTime))
}

func TestBleveIndexListAndStats(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)
	ctx := context.Background()

	all, err := bi.List(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	some, err := bi.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, some, 2)

	st, err := bi.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Count: 4, Healthy: true}, st)

	id := NewIDAllocator(bi, 0, nil).Next(ctx)
	assert.Equal(t, Identity{TicketID: 105, CustomerID: 1205}, id)
}

func TestBleveIndexUploadReplaces(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)
	ctx := context.Background()

	updated := TicketRecord{TicketID: 104, CustomerID: 1204, LocationID: 3, Description: "VPN fixed after certificate renewal", EstimatedHours: 3}
	require.NoError(t, bi.Upload(ctx, []Document{{Candidate: updated.Candidate()}}))

	st, _ := bi.Stats(ctx)
	assert.Equal(t, 4, st.Count)

	hits, err := bi.Search(ctx, TextQuery{Text: "certificate"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 3.0, hits[0].Hours(FieldEstimatedTime))
}

func TestBleveIndexUploadRequiresID(t *testing.T) {
	bi := newTestIndex(t)
	err := bi.Upload(context.Background(), []Document{{Candidate: Candidate{Description: "no id"}}})
	assert.Error(t, err)
}

func TestBleveIndexReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.bleve")
	bi, err := NewBleveIndex(IndexerConfig{Path: path})
	require.NoError(t, err)
	seedTickets(t, bi)
	require.NoError(t, bi.Close())

	bi, err = NewBleveIndex(IndexerConfig{Path: path})
	require.NoError(t, err)
	defer bi.Close()

	st, err := bi.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.Count)
}

func TestBleveIndexBackendsEndToEnd(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)

	e := newTestEngine(t, EngineConfig{TextIndex: bi})
	r, err := e.Estimate(context.Background(), Submission{LocationID: 7, Description: "Label printer in warehouse has a paper jam"})
	require.NoError(t, err)
	assert.Equal(t, MethodHybridSearch, r.Method)
	assert.Equal(t, 6, r.EstimatedHours)
	assert.Equal(t, 105, r.TicketID)
}

func TestBleveIndexGet(t *testing.T) {
	bi := newTestIndex(t)
	seedTickets(t, bi)
	ctx := context.Background()

	c, err := bi.Get(ctx, "102")
	require.NoError(t, err)
	assert.Equal(t, "Printer toner is empty and pages come out blank", c.Description)
	assert.Equal(t, 3, c.LocationID)

	_, err = bi.Get(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBleveIndexHighestIDsBeyondScanLimit(t *testing.T) {
	bi := newTestIndex(t)
	ctx := context.Background()

	n := idScanLimit + 200
	docs := make([]Document, 0, n+1)
	for i := 1; i <= n; i++ {
		rec := TicketRecord{TicketID: i, CustomerID: 5000 + i, LocationID: i % 5, Description: fmt.Sprintf("ticket number %d", i), EstimatedHours: 2}
		docs = append(docs, Document{Candidate: rec.Candidate()})
	}
	docs = append(docs, Document{Candidate: Candidate{TicketID: "TCK-99999", Description: "imported ticket"}})
	require.NoError(t, bi.Upload(ctx, docs))

	listed, err := bi.List(ctx, idScanLimit)
	require.NoError(t, err)
	assert.Len(t, listed, idScanLimit)

	top, err := bi.HighestIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, Identity{TicketID: n, CustomerID: 5000 + n}, top)

	id := NewIDAllocator(bi, 0, nil).Next(ctx)
	assert.Equal(t, Identity{TicketID: n + 1, CustomerID: 5000 + n + 1}, id)

	_, err = bi.Get(ctx, strconv.Itoa(id.TicketID))
	assert.ErrorIs(t, err, ErrNotFound, "allocated id is unused")

	c, err := bi.Get(ctx, "7")
	require.NoError(t, err)
	assert.NotContains(t, c.Fields, fieldTicketNum)
	assert.NotContains(t, c.Fields, fieldCustomerNum)
}

func TestBleveIndexHighestIDsEmpty(t *testing.T) {
	bi := newTestIndex(t)
	top, err := bi.HighestIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{}, top)
}
