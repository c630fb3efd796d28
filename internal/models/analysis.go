package models

// SeverityResult is the 5-level classification derived from a matched rule.
// Level 0 means "undetermined" and is a valid business outcome.
type SeverityResult struct {
	Level             int    `json:"level"`
	Label             string `json:"label"`
	StrategyIntensity string `json:"strategyIntensity"`
}

// TipMetadata describes where a retrieved marketing tip came from.
type TipMetadata struct {
	SourceChannel string `json:"sourceChannel,omitempty"`
	Title         string `json:"title,omitempty"`
	SourceLink    string `json:"sourceLink,omitempty"`
}

// Tip is one document returned by the knowledge retriever.
type Tip struct {
	Content  string      `json:"content"`
	Metadata TipMetadata `json:"metadata"`
}
