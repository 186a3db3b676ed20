package ticketeta

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Method identifies which tier of the fallback chain produced an estimate.
type Method string

const (
	MethodActiveVector   Method = "active_vector"
	MethodHistoricVector Method = "historic_vector"

	// Unfiltered vector tiers, consulted after both location-filtered ones.
	MethodActiveVectorGlobal   Method = "active_vector_global"
	MethodHistoricVectorGlobal Method = "historic_vector_global"

	MethodHybridSearch Method = "hybrid_search"
	MethodTextSearch   Method = "text_search"
	MethodGlobalSearch Method = "global_search"
	MethodDefault      Method = "default"
)

// Label returns the customer-facing description of the method.
func (m Method) Label() string {
	switch m {
	case MethodActiveVector:
		return "Vector Search - Active Tickets"
	case MethodHistoricVector:
		return "Vector Search - Historic Tickets"
	case MethodActiveVectorGlobal:
		return "Vector Search - Active Tickets (All Locations)"
	case MethodHistoricVectorGlobal:
		return "Vector Search - Historic Tickets (All Locations)"
	case MethodHybridSearch:
		return "Hybrid Search (Text + Vector)"
	case MethodTextSearch:
		return "Text Search"
	case MethodGlobalSearch:
		return "Global Search (No Location Filter)"
	case MethodDefault:
		return "Default Estimate"
	default:
		return string(m)
	}
}

// Well-known candidate fields.
const (
	FieldEstimatedTime = "estimated_resolution_time"
	FieldActualTime    = "actual_resolution_time"
	FieldCustomerID    = "customer_id"
	FieldTicketID      = "ticket_id"
	FieldLocationID    = "location_id"
	FieldDescription   = "description"
)

// DefaultHours is the estimate used when no tier qualifies and the value
// substituted for a match without a usable resolution time.
const DefaultHours = 24

// Submission is an incoming ticket awaiting an estimate.
type Submission struct {
	LocationID  int    `json:"location_id"`
	Description string `json:"description"`
}

// Candidate is a previously seen ticket returned by a retrieval backend.
type Candidate struct {
	TicketID    string         `json:"ticket_id"`
	LocationID  int            `json:"location_id"`
	Description string         `json:"description"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// Hours returns the first usable resolution time among fields, in order.
// Missing, non-numeric, negative or non-finite values fall through; if none
// is usable the result is DefaultHours.
func (c Candidate) Hours(fields ...string) float64 {
	for _, f := range fields {
		if v, ok := numeric(c.Fields[f]); ok && v >= 0 {
			return v
		}
	}
	return DefaultHours
}

// numeric converts backend property values into a finite float64.
func numeric(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ScoredMatch pairs a candidate with its relevance score in [0,1].
type ScoredMatch struct {
	Candidate
	Score float64 `json:"score"`
}

// Result is the outcome of estimating a submission.
type Result struct {
	TicketID       int       `json:"ticket_id"`
	CustomerID     int       `json:"customer_id"`
	LocationID     int       `json:"location_id"`
	EstimatedHours int       `json:"estimated_hours"`
	Method         Method    `json:"method"`
	Label          string    `json:"label"`
	Confidence     *float64  `json:"confidence,omitempty"`
	MatchCount     int       `json:"match_count"`
	Valid          bool      `json:"valid"`
	Cached         bool      `json:"cached"`
	Notification   string    `json:"notification"`
	CreatedAt      time.Time `json:"created_at"`
}

// Identity is a ticket/customer identifier pair.
type Identity struct {
	TicketID   int `json:"ticket_id"`
	CustomerID int `json:"customer_id"`
}

// TicketRecord is a resolved or in-flight ticket to be added to the indexes.
type TicketRecord struct {
	TicketID       int     `json:"ticket_id"`
	CustomerID     int     `json:"customer_id"`
	LocationID     int     `json:"location_id"`
	Description    string  `json:"description"`
	EstimatedHours float64 `json:"estimated_resolution_time"`
}

// RecordFromResult builds the record registered after a successful estimate.
func RecordFromResult(r *Result, description string) TicketRecord {
	return TicketRecord{
		TicketID:       r.TicketID,
		CustomerID:     r.CustomerID,
		LocationID:     r.LocationID,
		Description:    description,
		EstimatedHours: float64(r.EstimatedHours),
	}
}

// Candidate converts the record into the shape stored by indexes.
func (tr TicketRecord) Candidate() Candidate {
	return Candidate{
		TicketID:    strconv.Itoa(tr.TicketID),
		LocationID:  tr.LocationID,
		Description: tr.Description,
		Fields: map[string]any{
			FieldCustomerID:    strconv.Itoa(tr.CustomerID),
			FieldEstimatedTime: tr.EstimatedHours,
		},
	}
}
