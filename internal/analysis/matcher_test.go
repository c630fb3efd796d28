package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-insight-workers/internal/models"
)

func declineRule(id string, confidence float64, condition map[string]models.Direction) models.PatternRule {
	return models.PatternRule{
		RuleID:      id,
		PatternType: models.PatternDecline,
		Condition:   condition,
		Metrics:     models.RuleMetrics{Confidence: fp(confidence), Lift: fp(1.2)},
	}
}

func TestMatchRules_EmptyDeltaSet(t *testing.T) {
	rules := []models.PatternRule{
		declineRule("R1", 0.9, map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp}),
	}

	matched := MatchRules(DeltaSet{}, rules)
	assert.Empty(t, matched)
}

func TestMatchRules_DirectionalConditions(t *testing.T) {
	deltas := DeltaSet{
		models.IndustrySalesRankPct: 15.0,
		models.DeliverySalesRatio:   -3.0,
		models.ApprovalCancelRatio:  0.0,
	}

	tests := []struct {
		name      string
		condition map[string]models.Direction
		wantMatch bool
	}{
		{
			name:      "up on positive delta matches",
			condition: map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp},
			wantMatch: true,
		},
		{
			name:      "down on negative delta matches",
			condition: map[string]models.Direction{models.DeliverySalesRatio: models.DirectionDown},
			wantMatch: true,
		},
		{
			name:      "down on positive delta fails",
			condition: map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionDown},
			wantMatch: false,
		},
		{
			name:      "up on zero delta fails",
			condition: map[string]models.Direction{models.ApprovalCancelRatio: models.DirectionUp},
			wantMatch: false,
		},
		{
			name:      "down on zero delta fails",
			condition: map[string]models.Direction{models.ApprovalCancelRatio: models.DirectionDown},
			wantMatch: false,
		},
		{
			name: "conjunction: all conditions must hold",
			condition: map[string]models.Direction{
				models.IndustrySalesRankPct: models.DirectionUp,
				models.DeliverySalesRatio:   models.DirectionDown,
			},
			wantMatch: true,
		},
		{
			name: "conjunction: one failing condition disqualifies",
			condition: map[string]models.Direction{
				models.IndustrySalesRankPct: models.DirectionUp,
				models.DeliverySalesRatio:   models.DirectionUp,
			},
			wantMatch: false,
		},
		{
			name:      "indicator absent from deltas counts as zero",
			condition: map[string]models.Direction{models.TradeZoneClosureRatio: models.DirectionDown},
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := MatchRules(deltas, []models.PatternRule{declineRule("R", 0.8, tt.condition)})
			if tt.wantMatch {
				assert.Len(t, matched, 1)
			} else {
				assert.Empty(t, matched)
			}
		})
	}
}

func TestMatchRules_BoundaryAtZero(t *testing.T) {
	rules := []models.PatternRule{
		declineRule("R1", 0.8, map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionDown}),
	}

	assert.Empty(t, MatchRules(DeltaSet{models.IndustrySalesRankPct: 0.0}, rules))
	assert.Empty(t, MatchRules(DeltaSet{models.IndustrySalesRankPct: 0.0000001}, rules))
	assert.Len(t, MatchRules(DeltaSet{models.IndustrySalesRankPct: -0.0000001}, rules), 1)
}

func TestMatchRules_SortedByConfidenceDescending(t *testing.T) {
	deltas := DeltaSet{models.IndustrySalesRankPct: 5.0}
	cond := map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp}

	rules := []models.PatternRule{
		declineRule("low", 0.6, cond),
		declineRule("high", 0.95, cond),
		declineRule("mid", 0.8, cond),
	}

	matched := MatchRules(deltas, rules)
	require.Len(t, matched, 3)
	assert.Equal(t, "high", matched[0].RuleID)
	assert.Equal(t, "mid", matched[1].RuleID)
	assert.Equal(t, "low", matched[2].RuleID)
}

func TestMatchRules_StableOrderOnEqualConfidence(t *testing.T) {
	deltas := DeltaSet{models.IndustrySalesRankPct: 5.0}
	cond := map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp}

	rules := []models.PatternRule{
		declineRule("first", 0.8, cond),
		declineRule("second", 0.8, cond),
		declineRule("third", 0.8, cond),
	}

	matched := MatchRules(deltas, rules)
	require.Len(t, matched, 3)
	assert.Equal(t, "first", matched[0].RuleID)
	assert.Equal(t, "second", matched[1].RuleID)
	assert.Equal(t, "third", matched[2].RuleID)
}

func TestMatchRules_MissingConfidenceUsesDefaultForRanking(t *testing.T) {
	deltas := DeltaSet{models.IndustrySalesRankPct: 5.0}
	cond := map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp}

	noConfidence := models.PatternRule{
		RuleID:      "unscored",
		PatternType: models.PatternDecline,
		Condition:   cond,
	}
	rules := []models.PatternRule{
		noConfidence,
		declineRule("scored", 0.9, cond),
	}

	matched := MatchRules(deltas, rules)
	require.Len(t, matched, 2)
	// default 0.5 < 0.9
	assert.Equal(t, "scored", matched[0].RuleID)
	assert.Equal(t, "unscored", matched[1].RuleID)
}
