package ticketeta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateQuorum(t *testing.T) {
	two := []ScoredMatch{match(0.9, 4.0), match(0.8, 6.0)}
	est := Aggregate(two, HighConfidence, FieldEstimatedTime)
	assert.False(t, est.Qualified, "two matches must not satisfy a quorum of three")
	assert.Len(t, est.Kept, 2)

	three := append(two, match(0.76, 5.0))
	est = Aggregate(three, HighConfidence, FieldEstimatedTime)
	assert.True(t, est.Qualified)
	assert.Equal(t, 5, est.Hours)
	assert.Equal(t, 3, est.Count)
	assert.InDelta(t, 0.9, est.Confidence, 1e-9)
}

func TestAggregateThresholdIsStrict(t *testing.T) {
	est := Aggregate([]ScoredMatch{match(0.65, 3.0)}, MediumConfidence, FieldEstimatedTime)
	assert.False(t, est.Qualified)
	assert.Len(t, est.Rejected, 1)

	est = Aggregate([]ScoredMatch{match(0.66, 3.0)}, MediumConfidence, FieldEstimatedTime)
	assert.True(t, est.Qualified)
	assert.Equal(t, 3, est.Hours)
}

func TestAggregateMissingTimeUsesDefault(t *testing.T) {
	matches := []ScoredMatch{
		match(0.9, nil),
		match(0.9, "not a number"),
		match(0.9, math.NaN()),
	}
	est := Aggregate(matches, HighConfidence, FieldEstimatedTime)
	assert.True(t, est.Qualified)
	assert.Equal(t, DefaultHours, est.Hours)
}

func TestAggregateRounding(t *testing.T) {
	tests := []struct {
		name  string
		hours []any
		want  int
	}{
		{"half rounds away from zero", []any{2.0, 3.0}, 3},
		{"below half", []any{2.0, 2.0, 3.0}, 2},
		{"string and int values", []any{"4", 6}, 5},
		{"fractional", []any{1.25, 1.25}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ms []ScoredMatch
			for _, h := range tt.hours {
				ms = append(ms, match(0.9, h))
			}
			est := Aggregate(ms, MediumConfidence, FieldEstimatedTime)
			assert.True(t, est.Qualified)
			assert.Equal(t, tt.want, est.Hours)
		})
	}
}

func TestAggregateEmpty(t *testing.T) {
	est := Aggregate(nil, TextRelevance, FieldEstimatedTime)
	assert.False(t, est.Qualified)
	assert.Zero(t, est.Count)
}

func TestAggregateZeroQuorumTreatedAsOne(t *testing.T) {
	est := Aggregate(nil, Policy{Threshold: 0.5, Quorum: 0})
	assert.False(t, est.Qualified)

	est = Aggregate([]ScoredMatch{match(0.6, 7.0)}, Policy{Threshold: 0.5, Quorum: 0}, FieldEstimatedTime)
	assert.True(t, est.Qualified)
	assert.Equal(t, 7, est.Hours)
}

func TestHoursFieldOrder(t *testing.T) {
	c := Candidate{Fields: map[string]any{FieldEstimatedTime: 8.0, FieldActualTime: 3.0}}
	assert.Equal(t, 3.0, c.Hours(FieldActualTime, FieldEstimatedTime))
	assert.Equal(t, 8.0, c.Hours(FieldEstimatedTime, FieldActualTime))

	c = Candidate{Fields: map[string]any{FieldEstimatedTime: 8.0, FieldActualTime: -1.0}}
	assert.Equal(t, 8.0, c.Hours(FieldActualTime, FieldEstimatedTime), "negative time falls through")

	assert.Equal(t, float64(DefaultHours), Candidate{}.Hours(FieldActualTime))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 0.8, similarity(dist(0.2)), 1e-9)
	assert.Equal(t, 0.99, similarity(nil))
	assert.Equal(t, 0.0, similarity(dist(1.7)))
	assert.Equal(t, 1.0, similarity(dist(-0.3)))
}

func TestSquash(t *testing.T) {
	assert.Equal(t, 0.0, squash(0))
	assert.Equal(t, 0.0, squash(-2))
	assert.Equal(t, 0.5, squash(1))
	assert.Equal(t, 1.0, squash(math.Inf(1)))
	assert.Less(t, squash(2), squash(3), "order preserved")
	assert.Less(t, squash(1e6), 1.0)
}
