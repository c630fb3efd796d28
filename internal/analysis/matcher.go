package analysis

import (
	"sort"

	"merchant-insight-workers/internal/models"
)

// MatchRules evaluates the rule catalog against a DeltaSet and returns every
// matching rule, sorted descending by confidence. The sort is stable so rules
// with equal confidence keep catalog order.
func MatchRules(deltas DeltaSet, rules []models.PatternRule) []models.PatternRule {
	if len(deltas) == 0 {
		return nil
	}

	var matched []models.PatternRule
	for _, rule := range rules {
		if ruleMatches(deltas, rule) {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Metrics.ConfidenceOr(defaultConfidence) > matched[j].Metrics.ConfidenceOr(defaultConfidence)
	})

	return matched
}

// ruleMatches checks the rule's condition conjunction: every named delta
// must be strictly negative for "down" and strictly positive for "up".
// A zero delta satisfies neither direction, and an indicator absent from
// the DeltaSet counts as zero.
func ruleMatches(deltas DeltaSet, rule models.PatternRule) bool {
	for indicator, direction := range rule.Condition {
		delta := deltas[indicator]
		switch direction {
		case models.DirectionDown:
			if !(delta < 0) {
				return false
			}
		case models.DirectionUp:
			if !(delta > 0) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
