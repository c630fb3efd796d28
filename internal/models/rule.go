package models

// PatternType is the coarse classification of a matched rule.
type PatternType string

const (
	PatternDecline PatternType = "Decline"
	PatternGrowth  PatternType = "Growth"
)

// Direction is the required movement of a delta for a rule condition.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// RuleMetrics carries the statistical scores attached to a catalog rule.
// Confidence and Lift drive severity classification; Support and PValue are
// informational and preserved for the output contract.
type RuleMetrics struct {
	Confidence *float64 `json:"confidence,omitempty"`
	Lift       *float64 `json:"lift,omitempty"`
	Support    *float64 `json:"support,omitempty"`
	PValue     *float64 `json:"pValue,omitempty"`
}

// ConfidenceOr returns the confidence score or def when absent.
func (m RuleMetrics) ConfidenceOr(def float64) float64 {
	if m.Confidence != nil {
		return *m.Confidence
	}
	return def
}

// LiftOr returns the lift score or def when absent.
func (m RuleMetrics) LiftOr(def float64) float64 {
	if m.Lift != nil {
		return *m.Lift
	}
	return def
}

// PatternRule is one catalog entry: a conjunction of directional conditions
// over named deltas. Loaded once at startup, read-only thereafter.
type PatternRule struct {
	RuleID      string               `json:"ruleId"`
	PatternType PatternType          `json:"patternType"`
	Condition   map[string]Direction `json:"condition"`
	Metrics     RuleMetrics          `json:"metrics"`
}
