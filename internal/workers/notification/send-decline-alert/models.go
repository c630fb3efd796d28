// internal/workers/notification/send-decline-alert/models.go
package senddeclinealert

type Input struct {
	MerchantID        string `json:"merchantId"`
	MerchantName      string `json:"merchantName"`
	PatternType       string `json:"patternType"`
	SeverityLevel     int    `json:"severityLevel"`
	SeverityLabel     string `json:"severityLabel"`
	StrategyIntensity string `json:"strategyIntensity,omitempty"`
	RecipientEmail    string `json:"recipientEmail,omitempty"`
	RecipientPhone    string `json:"recipientPhone,omitempty"`
}

type Output struct {
	AlertID   string `json:"alertId"`
	Status    string `json:"status"` // "sent", "skipped", "failed"
	EmailSent bool   `json:"emailSent"`
	SMSSent   bool   `json:"smsSent"`
	SentAt    string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)
