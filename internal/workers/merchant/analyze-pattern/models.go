// internal/workers/merchant/analyze-pattern/models.go
package analyzepattern

import "merchant-insight-workers/internal/models"

type Input struct {
	MerchantID  string `json:"merchantId"`
	IncludeTips bool   `json:"includeTips,omitempty"`
}

type Output struct {
	Found          bool                   `json:"found"`
	MerchantID     string                 `json:"merchantId"`
	Pattern        *models.PatternRule    `json:"pattern"`
	Severity       *models.SeverityResult `json:"severity"`
	MatchedRuleIDs []string               `json:"matchedRuleIds"`
	LatestMetrics  map[string]float64     `json:"latestMetricsContext"`
	Deltas         map[string]float64     `json:"deltas,omitempty"`
	Tips           []models.Tip           `json:"tips"`
	TipsDiagnostic string                 `json:"tipsDiagnostic,omitempty"`
	Message        string                 `json:"message"`
}
