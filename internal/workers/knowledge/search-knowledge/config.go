// internal/workers/knowledge/search-knowledge/config.go
package searchknowledge

import "time"

type Config struct {
	Timeout             time.Duration
	SimilarityThreshold float64
	MaxResults          int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             10 * time.Second,
		SimilarityThreshold: 0.5,
		MaxResults:          3,
	}
}
