package ticketeta

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex implements TextIndex using Bleve with optional FAISS vector support.
type BleveIndex struct {
	index       bleve.Index
	indexPath   string
	dims        int // embedding dimensions, 0 means no vector support
	vectorField string
}

var _ TextIndex = (*BleveIndex)(nil)

// Numeric copies of the identifiers, kept sortable for ID allocation.
const (
	fieldTicketNum   = "ticket_num"
	fieldCustomerNum = "customer_num"
)

// IndexerConfig configures the Bleve index.
type IndexerConfig struct {
	Path        string // Directory for the Bleve index
	Dims        int    // Embedding dimensions (0 = text only, no vector field)
	VectorField string // Name of the vector field (default: content_vector)
}

// NewBleveIndex creates or opens a Bleve index at the given path.
func NewBleveIndex(cfg IndexerConfig) (*BleveIndex, error) {
	if cfg.VectorField == "" {
		cfg.VectorField = DefaultVectorFields[0]
	}

	idx, err := bleve.Open(cfg.Path)
	if err == nil {
		return &BleveIndex{index: idx, indexPath: cfg.Path, dims: cfg.Dims, vectorField: cfg.VectorField}, nil
	}

	// If the path exists but bleve.Open failed, the index is corrupt or incompatible.
	if _, statErr := os.Stat(cfg.Path); statErr == nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}

	indexMapping := buildBaseIndexMapping()
	addVectorMapping(indexMapping, cfg.VectorField, cfg.Dims)

	idx, err = bleve.New(cfg.Path, indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	return &BleveIndex{index: idx, indexPath: cfg.Path, dims: cfg.Dims, vectorField: cfg.VectorField}, nil
}

// buildBaseIndexMapping maps ticket documents: the description is analyzed
// text, identifiers are stored keywords, location and times are numeric.
func buildBaseIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "en"
	textField.Store = true
	docMapping.AddFieldMappingsAt(FieldDescription, textField)

	keywordField := bleve.NewKeywordFieldMapping()
	keywordField.Store = true
	docMapping.AddFieldMappingsAt(FieldTicketID, keywordField)
	docMapping.AddFieldMappingsAt(FieldCustomerID, keywordField)

	numericField := bleve.NewNumericFieldMapping()
	numericField.Store = true
	docMapping.AddFieldMappingsAt(FieldLocationID, numericField)
	docMapping.AddFieldMappingsAt(FieldEstimatedTime, numericField)
	docMapping.AddFieldMappingsAt(FieldActualTime, numericField)
	docMapping.AddFieldMappingsAt(fieldTicketNum, numericField)
	docMapping.AddFieldMappingsAt(fieldCustomerNum, numericField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Search executes a text query, optionally combined with a KNN clause.
func (bi *BleveIndex) Search(ctx context.Context, q TextQuery) ([]TextHit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	match := bleve.NewMatchQuery(q.Text)
	match.SetField(FieldDescription)
	if q.RequireAll {
		match.SetOperator(blevequery.MatchQueryOperatorAnd)
	}

	var textQuery blevequery.Query = match
	var filter blevequery.Query
	if q.LocationID != nil {
		filter = locationFilter(*q.LocationID)
		textQuery = bleve.NewConjunctionQuery(match, filter)
	}

	req := bleve.NewSearchRequest(textQuery)
	req.Size = limit
	req.Fields = []string{"*"}
	if len(q.Vector) > 0 && q.VectorField != "" {
		bi.addKNN(req, q, filter, limit)
	}

	results, err := bi.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]TextHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		hits = append(hits, TextHit{Candidate: candidateFromFields(hit.ID, hit.Fields), Score: hit.Score})
	}
	return hits, nil
}

// List returns up to limit indexed tickets in index order.
func (bi *BleveIndex) List(ctx context.Context, limit int) ([]Candidate, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = limit
	req.Fields = []string{"*"}

	results, err := bi.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve list: %w", err)
	}

	out := make([]Candidate, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out = append(out, candidateFromFields(hit.ID, hit.Fields))
	}
	return out, nil
}

// Get returns one indexed ticket by ID.
func (bi *BleveIndex) Get(ctx context.Context, ticketID string) (Candidate, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{ticketID}))
	req.Size = 1
	req.Fields = []string{"*"}

	results, err := bi.index.SearchInContext(ctx, req)
	if err != nil {
		return Candidate{}, fmt.Errorf("bleve get %s: %w", ticketID, err)
	}
	if len(results.Hits) == 0 {
		return Candidate{}, fmt.Errorf("ticket %s: %w", ticketID, ErrNotFound)
	}
	hit := results.Hits[0]
	return candidateFromFields(hit.ID, hit.Fields), nil
}

// HighestIDs returns the largest numeric ticket and customer identifiers in
// the index, or zero when there are none.
func (bi *BleveIndex) HighestIDs(ctx context.Context) (Identity, error) {
	ticket, err := bi.highest(ctx, fieldTicketNum)
	if err != nil {
		return Identity{}, err
	}
	customer, err := bi.highest(ctx, fieldCustomerNum)
	if err != nil {
		return Identity{}, err
	}
	return Identity{TicketID: ticket, CustomerID: customer}, nil
}

// highest reads the top value of a numeric field. Documents without the
// field sort last.
func (bi *BleveIndex) highest(ctx context.Context, field string) (int, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = 1
	req.Fields = []string{field}
	req.SortBy([]string{"-" + field})

	results, err := bi.index.SearchInContext(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("bleve highest %s: %w", field, err)
	}
	if len(results.Hits) == 0 {
		return 0, nil
	}
	n, _ := numeric(results.Hits[0].Fields[field])
	return int(n), nil
}

// Upload indexes documents in a single batch, replacing existing ones with
// the same ticket ID.
func (bi *BleveIndex) Upload(ctx context.Context, docs []Document) error {
	batch := bi.index.NewBatch()
	for _, d := range docs {
		if d.TicketID == "" {
			return fmt.Errorf("upload: document without ticket id")
		}
		if err := batch.Index(d.TicketID, bi.docFor(ctx, d)); err != nil {
			return fmt.Errorf("batch index %s: %w", d.TicketID, err)
		}
	}
	if err := bi.index.Batch(batch); err != nil {
		return fmt.Errorf("bleve batch: %w", err)
	}
	return nil
}

// Stats reports the document count.
func (bi *BleveIndex) Stats(_ context.Context) (IndexStats, error) {
	n, err := bi.index.DocCount()
	if err != nil {
		return IndexStats{}, fmt.Errorf("bleve doc count: %w", err)
	}
	return IndexStats{Count: int(n), Healthy: true}, nil
}

// Close closes the Bleve index.
func (bi *BleveIndex) Close() error {
	return bi.index.Close()
}

// docFor flattens a document into the indexed field map.
func (bi *BleveIndex) docFor(ctx context.Context, d Document) map[string]any {
	doc := make(map[string]any, len(d.Fields)+4)
	for k, v := range d.Fields {
		doc[k] = v
	}
	doc[FieldTicketID] = d.TicketID
	doc[FieldLocationID] = float64(d.LocationID)
	doc[FieldDescription] = d.Description
	delete(doc, fieldTicketNum)
	delete(doc, fieldCustomerNum)
	if n, ok := numericID(d.TicketID); ok {
		doc[fieldTicketNum] = float64(n)
	}
	if n, ok := numericID(d.Fields[FieldCustomerID]); ok {
		doc[fieldCustomerNum] = float64(n)
	}

	field := d.VectorField
	if field == "" {
		field = bi.vectorField
	}
	if len(d.Vector) == bi.dims && bi.HasVectorField(ctx, field) {
		doc[field] = d.Vector
	}
	return doc
}

func locationFilter(locationID int) blevequery.Query {
	v := float64(locationID)
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
	q.SetField(FieldLocationID)
	return q
}

// candidateFromFields rebuilds a candidate from stored fields.
func candidateFromFields(id string, fields map[string]any) Candidate {
	c := Candidate{TicketID: id, Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case FieldTicketID:
			if s, ok := v.(string); ok && s != "" {
				c.TicketID = s
			}
		case FieldLocationID:
			if n, ok := numeric(v); ok {
				c.LocationID = int(n)
			}
		case FieldDescription:
			c.Description, _ = v.(string)
		case fieldTicketNum, fieldCustomerNum:
		default:
			c.Fields[k] = v
		}
	}
	return c
}

// numericID parses identifiers stored as text.
func numericID(v any) (int, bool) {
	switch s := v.(type) {
	case string:
		n, err := strconv.Atoi(s)
		return n, err == nil
	default:
		f, ok := numeric(v)
		return int(f), ok && f == float64(int(f))
	}
}
