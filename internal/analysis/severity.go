package analysis

import "merchant-insight-workers/internal/models"

const (
	defaultLift       = 1.0
	defaultConfidence = 0.5
)

// ClassifySeverity maps a matched rule's pattern type and metrics into the
// 5-level severity classification. Pure function of (pattern type, lift,
// confidence); thresholds are exclusive, first matching row wins.
//
// Decline reads lift the usual way: higher lift plus higher confidence is a
// more severe decline. Growth inverts the lift comparison (lower lift plus
// higher confidence is a stronger signal); the catalog is calibrated around
// that asymmetry, so it must not be normalized away here.
func ClassifySeverity(rule *models.PatternRule) models.SeverityResult {
	if rule == nil {
		return undetermined()
	}

	lift := rule.Metrics.LiftOr(defaultLift)
	confidence := rule.Metrics.ConfidenceOr(defaultConfidence)

	switch rule.PatternType {
	case models.PatternDecline:
		return classifyDecline(lift, confidence)
	case models.PatternGrowth:
		return classifyGrowth(lift, confidence)
	default:
		return undetermined()
	}
}

func classifyDecline(lift, confidence float64) models.SeverityResult {
	switch {
	case lift > 1.5 && confidence > 0.9:
		return models.SeverityResult{Level: 5, Label: "very severe decline", StrategyIntensity: "very aggressive"}
	case lift > 1.3 && confidence > 0.8:
		return models.SeverityResult{Level: 4, Label: "severe decline", StrategyIntensity: "aggressive"}
	case lift > 1.15 && confidence > 0.7:
		return models.SeverityResult{Level: 3, Label: "moderate decline", StrategyIntensity: "moderately aggressive"}
	case lift > 1.05 && confidence > 0.6:
		return models.SeverityResult{Level: 2, Label: "mild decline", StrategyIntensity: "conservative"}
	default:
		return models.SeverityResult{Level: 1, Label: "weak decline signal", StrategyIntensity: "conservative"}
	}
}

func classifyGrowth(lift, confidence float64) models.SeverityResult {
	switch {
	case lift < 0.5 && confidence > 0.9:
		return models.SeverityResult{Level: 5, Label: "very strong growth", StrategyIntensity: "maintain current approach"}
	case lift < 0.7 && confidence > 0.8:
		return models.SeverityResult{Level: 4, Label: "strong growth", StrategyIntensity: "passive"}
	case lift < 0.85 && confidence > 0.7:
		return models.SeverityResult{Level: 3, Label: "moderate growth", StrategyIntensity: "balanced"}
	case lift < 0.95 && confidence > 0.6:
		return models.SeverityResult{Level: 2, Label: "weak growth", StrategyIntensity: "balanced"}
	default:
		return models.SeverityResult{Level: 1, Label: "growth potential", StrategyIntensity: "balanced-to-aggressive"}
	}
}

func undetermined() models.SeverityResult {
	return models.SeverityResult{Level: 0, Label: "undeterminable", StrategyIntensity: "balanced"}
}
