// internal/workers/merchant/select-merchant/models.go
package selectmerchant

import "merchant-insight-workers/internal/models"

type Input struct {
	MerchantID string `json:"merchantId"`
}

type Output struct {
	Found    bool                   `json:"found"`
	Merchant *models.MerchantRecord `json:"merchant,omitempty"`
	Message  string                 `json:"message"`
}
