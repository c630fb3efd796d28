// Package catalog loads the declarative pattern-rule catalog. The catalog is
// validated against a JSON schema before decoding so malformed entries fail
// at startup, not at request time.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"merchant-insight-workers/internal/analysis"
	"merchant-insight-workers/internal/models"
)

const ruleSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["rule_id", "pattern_type", "condition", "metrics"],
    "properties": {
      "rule_id": {"type": "string", "minLength": 1},
      "pattern_type": {"type": "string", "enum": ["Decline", "Growth"]},
      "condition": {
        "type": "object",
        "minProperties": 1,
        "additionalProperties": {"type": "string", "enum": ["up", "down"]}
      },
      "metrics": {
        "type": "object",
        "required": ["confidence", "lift"],
        "properties": {
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "lift": {"type": "number", "minimum": 0},
          "support": {"type": "number", "minimum": 0, "maximum": 1},
          "p_value": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

// catalog file entries use snake_case keys; decoded into the camelCase
// output types after validation.
type rawRule struct {
	RuleID      string             `json:"rule_id"`
	PatternType string             `json:"pattern_type"`
	Condition   map[string]string  `json:"condition"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Validate checks raw catalog JSON against the embedded schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(ruleSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("catalog validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("catalog validation failed: %v", errs)
	}

	return nil
}

// Parse validates and decodes catalog JSON into typed rules.
func Parse(data []byte) ([]models.PatternRule, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var raw []rawRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog decode failed: %w", err)
	}

	rules := make([]models.PatternRule, 0, len(raw))
	for _, r := range raw {
		rule := models.PatternRule{
			RuleID:      r.RuleID,
			PatternType: models.PatternType(r.PatternType),
			Condition:   make(map[string]models.Direction, len(r.Condition)),
			Metrics:     toMetrics(r.Metrics),
		}
		for indicator, direction := range r.Condition {
			rule.Condition[indicator] = models.Direction(direction)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// Load reads and parses a catalog file.
func Load(path string) ([]models.PatternRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Lint reports non-fatal catalog findings: conditions referencing indicators
// outside the computed delta set can never match and are almost certainly
// typos.
func Lint(rules []models.PatternRule) []string {
	known := make(map[string]bool, len(analysis.Indicators))
	for _, name := range analysis.Indicators {
		known[name] = true
	}

	var warnings []string
	for _, rule := range rules {
		for indicator := range rule.Condition {
			if !known[indicator] {
				warnings = append(warnings, fmt.Sprintf("rule %s: condition references unknown indicator %q", rule.RuleID, indicator))
			}
		}
	}
	return warnings
}

func toMetrics(m map[string]float64) models.RuleMetrics {
	var metrics models.RuleMetrics
	if v, ok := m["confidence"]; ok {
		metrics.Confidence = &v
	}
	if v, ok := m["lift"]; ok {
		metrics.Lift = &v
	}
	if v, ok := m["support"]; ok {
		metrics.Support = &v
	}
	if v, ok := m["p_value"]; ok {
		metrics.PValue = &v
	}
	return metrics
}
