// internal/workers/notification/send-decline-alert/config.go
package senddeclinealert

import "time"

type Config struct {
	EmailEnabled     bool
	SMSEnabled       bool
	FromEmail        string
	AWSRegion        string
	MinSeverityLevel int
	SMSMinLevel      int
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled:     true,
		SMSEnabled:       true,
		MinSeverityLevel: 4,
		SMSMinLevel:      5,
		Timeout:          30 * time.Second,
	}
}
