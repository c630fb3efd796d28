// internal/workers/knowledge/search-knowledge/models.go
package searchknowledge

import "merchant-insight-workers/internal/models"

type Input struct {
	Query               string   `json:"query"`
	SimilarityThreshold *float64 `json:"similarityThreshold,omitempty"`
	MaxResults          int      `json:"maxResults,omitempty"`
}

type Output struct {
	Count      int          `json:"count"`
	Tips       []models.Tip `json:"tips"`
	Diagnostic string       `json:"diagnostic,omitempty"`
}
