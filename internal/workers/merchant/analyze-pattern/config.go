// internal/workers/merchant/analyze-pattern/config.go
package analyzepattern

import "time"

type Config struct {
	Timeout             time.Duration
	CacheTTL            time.Duration
	SimilarityThreshold float64
	MaxTips             int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		CacheTTL:            5 * time.Minute,
		SimilarityThreshold: 0.5,
		MaxTips:             3,
	}
}
