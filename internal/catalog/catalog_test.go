package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-insight-workers/internal/models"
)

const validCatalog = `[
  {
    "rule_id": "DECLINE_RANK_DROP",
    "pattern_type": "Decline",
    "condition": {"industry_sales_rank_pct": "up", "same_industry_sales_ratio": "down"},
    "metrics": {"confidence": 0.92, "lift": 1.55, "support": 0.12}
  },
  {
    "rule_id": "GROWTH_DELIVERY",
    "pattern_type": "Growth",
    "condition": {"delivery_sales_ratio": "up"},
    "metrics": {"confidence": 0.81, "lift": 0.6}
  }
]`

func TestParse_ValidCatalog(t *testing.T) {
	rules, err := Parse([]byte(validCatalog))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	first := rules[0]
	assert.Equal(t, "DECLINE_RANK_DROP", first.RuleID)
	assert.Equal(t, models.PatternDecline, first.PatternType)
	assert.Equal(t, models.DirectionUp, first.Condition["industry_sales_rank_pct"])
	assert.Equal(t, models.DirectionDown, first.Condition["same_industry_sales_ratio"])
	require.NotNil(t, first.Metrics.Confidence)
	assert.Equal(t, 0.92, *first.Metrics.Confidence)
	require.NotNil(t, first.Metrics.Lift)
	assert.Equal(t, 1.55, *first.Metrics.Lift)
	require.NotNil(t, first.Metrics.Support)
	assert.Equal(t, 0.12, *first.Metrics.Support)
	assert.Nil(t, first.Metrics.PValue)

	second := rules[1]
	assert.Equal(t, models.PatternGrowth, second.PatternType)
	assert.Nil(t, second.Metrics.Support)
}

func TestParse_RejectsMalformedCatalogs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "unknown pattern type",
			data: `[{"rule_id": "R", "pattern_type": "Sideways", "condition": {"delivery_sales_ratio": "up"}, "metrics": {"confidence": 0.8, "lift": 1.0}}]`,
		},
		{
			name: "invalid direction",
			data: `[{"rule_id": "R", "pattern_type": "Decline", "condition": {"delivery_sales_ratio": "sideways"}, "metrics": {"confidence": 0.8, "lift": 1.0}}]`,
		},
		{
			name: "missing metrics",
			data: `[{"rule_id": "R", "pattern_type": "Decline", "condition": {"delivery_sales_ratio": "down"}}]`,
		},
		{
			name: "confidence out of range",
			data: `[{"rule_id": "R", "pattern_type": "Decline", "condition": {"delivery_sales_ratio": "down"}, "metrics": {"confidence": 1.5, "lift": 1.0}}]`,
		},
		{
			name: "empty condition",
			data: `[{"rule_id": "R", "pattern_type": "Decline", "condition": {}, "metrics": {"confidence": 0.8, "lift": 1.0}}]`,
		},
		{
			name: "empty rule id",
			data: `[{"rule_id": "", "pattern_type": "Decline", "condition": {"delivery_sales_ratio": "down"}, "metrics": {"confidence": 0.8, "lift": 1.0}}]`,
		},
		{
			name: "not an array",
			data: `{"rule_id": "R"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyCatalogIsValid(t *testing.T) {
	rules, err := Parse([]byte(`[]`))
	assert.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLint_FlagsUnknownIndicators(t *testing.T) {
	rules := []models.PatternRule{
		{
			RuleID:      "TYPO",
			PatternType: models.PatternDecline,
			Condition:   map[string]models.Direction{"delivery_sales_ration": models.DirectionDown},
		},
		{
			RuleID:      "OK",
			PatternType: models.PatternGrowth,
			Condition:   map[string]models.Direction{models.DeliverySalesRatio: models.DirectionUp},
		},
	}

	warnings := Lint(rules)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "TYPO")
	assert.Contains(t, warnings[0], "delivery_sales_ration")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/catalog.json")
	assert.Error(t, err)
}
