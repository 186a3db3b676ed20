//go:build vectors

package ticketeta

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// addVectorMapping adds a vector field to the index mapping when built with -tags vectors.
func addVectorMapping(indexMapping *mapping.IndexMappingImpl, field string, dims int) {
	if dims > 0 {
		vectorField := mapping.NewVectorFieldMapping()
		vectorField.Dims = dims
		vectorField.Similarity = "cosine"
		indexMapping.DefaultMapping.AddFieldMappingsAt(field, vectorField)
	}
}

func (bi *BleveIndex) addKNN(req *bleve.SearchRequest, q TextQuery, filter blevequery.Query, limit int) {
	if filter != nil {
		req.AddKNNWithFilter(q.VectorField, q.Vector, int64(limit), 1.0, filter)
		return
	}
	req.AddKNN(q.VectorField, q.Vector, int64(limit), 1.0)
}

// HasVectorField reports whether the index mapping declares name as a vector field.
func (bi *BleveIndex) HasVectorField(_ context.Context, name string) bool {
	im, ok := bi.index.Mapping().(*mapping.IndexMappingImpl)
	if !ok || im.DefaultMapping == nil {
		return false
	}
	prop, ok := im.DefaultMapping.Properties[name]
	if !ok {
		return false
	}
	for _, f := range prop.Fields {
		if f.Type == "vector" {
			return true
		}
	}
	return false
}
