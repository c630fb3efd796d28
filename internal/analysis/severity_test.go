package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"merchant-insight-workers/internal/models"
)

func rule(pt models.PatternType, lift, confidence float64) *models.PatternRule {
	return &models.PatternRule{
		RuleID:      "R",
		PatternType: pt,
		Metrics:     models.RuleMetrics{Lift: fp(lift), Confidence: fp(confidence)},
	}
}

func TestClassifySeverity_DeclineTable(t *testing.T) {
	tests := []struct {
		name       string
		lift       float64
		confidence float64
		wantLevel  int
		wantLabel  string
		wantIntent string
	}{
		{"level 5", 1.6, 0.95, 5, "very severe decline", "very aggressive"},
		{"level 4", 1.4, 0.85, 4, "severe decline", "aggressive"},
		{"level 3", 1.2, 0.75, 3, "moderate decline", "moderately aggressive"},
		{"level 2", 1.1, 0.65, 2, "mild decline", "conservative"},
		{"level 1 fallback", 1.0, 0.5, 1, "weak decline signal", "conservative"},
		{"high lift but low confidence falls through", 2.0, 0.5, 1, "weak decline signal", "conservative"},
		{"high confidence but low lift falls through", 1.0, 0.99, 1, "weak decline signal", "conservative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySeverity(rule(models.PatternDecline, tt.lift, tt.confidence))
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantIntent, got.StrategyIntensity)
		})
	}
}

func TestClassifySeverity_DeclineBoundariesAreExclusive(t *testing.T) {
	// Exactly at the level-5 thresholds: drops through to level 4.
	got := ClassifySeverity(rule(models.PatternDecline, 1.5, 0.9))
	assert.Equal(t, 4, got.Level)
	assert.Equal(t, "severe decline", got.Label)

	// Exactly at the level-4 thresholds: level 3.
	got = ClassifySeverity(rule(models.PatternDecline, 1.3, 0.8))
	assert.Equal(t, 3, got.Level)

	// Exactly at the level-2 thresholds: level 1.
	got = ClassifySeverity(rule(models.PatternDecline, 1.05, 0.6))
	assert.Equal(t, 1, got.Level)
}

func TestClassifySeverity_GrowthTable(t *testing.T) {
	tests := []struct {
		name       string
		lift       float64
		confidence float64
		wantLevel  int
		wantLabel  string
		wantIntent string
	}{
		{"level 5", 0.4, 0.95, 5, "very strong growth", "maintain current approach"},
		{"level 4", 0.6, 0.85, 4, "strong growth", "passive"},
		{"level 3", 0.8, 0.75, 3, "moderate growth", "balanced"},
		{"level 2", 0.9, 0.65, 2, "weak growth", "balanced"},
		{"level 1 fallback", 1.0, 0.5, 1, "growth potential", "balanced-to-aggressive"},
		{"low lift but low confidence falls through", 0.1, 0.5, 1, "growth potential", "balanced-to-aggressive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySeverity(rule(models.PatternGrowth, tt.lift, tt.confidence))
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantIntent, got.StrategyIntensity)
		})
	}
}

func TestClassifySeverity_GrowthBoundariesAreExclusive(t *testing.T) {
	// Growth compares lift with <, so lift exactly 0.5 misses level 5.
	got := ClassifySeverity(rule(models.PatternGrowth, 0.5, 0.95))
	assert.Equal(t, 4, got.Level)

	got = ClassifySeverity(rule(models.PatternGrowth, 0.7, 0.85))
	assert.Equal(t, 3, got.Level)

	got = ClassifySeverity(rule(models.PatternGrowth, 0.95, 0.65))
	assert.Equal(t, 1, got.Level)
}

func TestClassifySeverity_MissingMetricsUseDefaults(t *testing.T) {
	// lift defaults to 1.0, confidence to 0.5: Decline lands on level 1.
	got := ClassifySeverity(&models.PatternRule{PatternType: models.PatternDecline})
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, "weak decline signal", got.Label)

	got = ClassifySeverity(&models.PatternRule{PatternType: models.PatternGrowth})
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, "growth potential", got.Label)
}

func TestClassifySeverity_UnknownPatternType(t *testing.T) {
	got := ClassifySeverity(rule(models.PatternType("Sideways"), 1.6, 0.95))
	assert.Equal(t, 0, got.Level)
	assert.Equal(t, "undeterminable", got.Label)
	assert.Equal(t, "balanced", got.StrategyIntensity)

	got = ClassifySeverity(nil)
	assert.Equal(t, 0, got.Level)
	assert.Equal(t, "undeterminable", got.Label)
}

func TestClassifySeverity_Deterministic(t *testing.T) {
	r := rule(models.PatternDecline, 1.35, 0.82)
	first := ClassifySeverity(r)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ClassifySeverity(r))
	}
}
