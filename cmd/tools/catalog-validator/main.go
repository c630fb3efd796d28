// cmd/tools/catalog-validator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"merchant-insight-workers/internal/catalog"
	"merchant-insight-workers/internal/models"
)

func main() {
	path := flag.String("path", "configs/rule-catalog.json", "Path to the rule catalog file")
	verbose := flag.Bool("v", false, "Print every rule after validation")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Printf("Error reading catalog file: %v\n", err)
		os.Exit(1)
	}

	if err := catalog.Validate(data); err != nil {
		fmt.Printf("Catalog validation failed: %v\n", err)
		os.Exit(1)
	}

	rules, err := catalog.Parse(data)
	if err != nil {
		fmt.Printf("Catalog parse failed: %v\n", err)
		os.Exit(1)
	}

	declines, growths := 0, 0
	for _, rule := range rules {
		switch rule.PatternType {
		case models.PatternDecline:
			declines++
		case models.PatternGrowth:
			growths++
		}
		if *verbose {
			fmt.Printf("  %s  type=%s  conditions=%d  confidence=%.2f  lift=%.2f\n",
				rule.RuleID, rule.PatternType, len(rule.Condition),
				rule.Metrics.ConfidenceOr(0.5), rule.Metrics.LiftOr(1.0))
		}
	}

	for _, warning := range catalog.Lint(rules) {
		fmt.Printf("Warning: %s\n", warning)
	}

	fmt.Printf("Catalog validation passed. Found %d rules (%d decline, %d growth).\n",
		len(rules), declines, growths)
}
