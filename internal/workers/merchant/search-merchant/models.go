// internal/workers/merchant/search-merchant/models.go
package searchmerchant

import "merchant-insight-workers/internal/models"

type Input struct {
	MerchantName string `json:"merchantName"`
	Location     string `json:"location,omitempty"`
	BusinessType string `json:"businessType,omitempty"`
}

type Output struct {
	ResultType string                   `json:"resultType"` // "not_found", "single", "multiple"
	Merchant   *models.MerchantRecord   `json:"merchant,omitempty"`
	Candidates []models.MerchantSummary `json:"candidates,omitempty"`
	Message    string                   `json:"message"`
}

// Result types
const (
	ResultNotFound = "not_found"
	ResultSingle   = "single"
	ResultMultiple = "multiple"
)
