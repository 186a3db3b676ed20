//go:build !vectors

package ticketeta

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// addVectorMapping is a no-op when built without -tags vectors.
func addVectorMapping(_ *mapping.IndexMappingImpl, _ string, _ int) {}

// addKNN is a no-op without FAISS; hybrid queries degrade to text only.
func (bi *BleveIndex) addKNN(_ *bleve.SearchRequest, _ TextQuery, _ blevequery.Query, _ int) {}

// HasVectorField is always false without FAISS support.
func (bi *BleveIndex) HasVectorField(_ context.Context, _ string) bool {
	return false
}
