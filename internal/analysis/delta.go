package analysis

import "merchant-insight-workers/internal/models"

// Indicators is the fixed set of sales indicators deltas are computed over.
// The rule catalog references these names.
var Indicators = []string{
	models.IndustrySalesRankPct,
	models.TradeZoneSalesRankPct,
	models.SameIndustrySalesRatio,
	models.IndustryClosureRatio,
	models.TradeZoneClosureRatio,
	models.DeliverySalesRatio,
	models.ApprovalCancelRatio,
}

// DeltaSet maps indicator name to its signed month-over-month change.
// Empty means "insufficient data"; a non-empty set contains exactly the
// fixed indicator keys.
type DeltaSet map[string]float64

// ComputeDeltas derives a DeltaSet from a merchant's sales history,
// ordered ascending by year-month.
//
// Zero records yield an empty set. A single record (new merchant, no prior
// baseline) uses the month's coerced value itself as the change signal.
// With two or more records only the last two matter: delta is
// coerce(latest) - coerce(previous) per indicator.
func ComputeDeltas(sales []models.MonthlySalesRecord) DeltaSet {
	deltas := make(DeltaSet, len(Indicators))

	switch {
	case len(sales) == 0:
		return deltas

	case len(sales) == 1:
		only := sales[0]
		for _, name := range Indicators {
			deltas[name] = CoerceNumeric(only.Indicator(name))
		}

	default:
		latest := sales[len(sales)-1]
		prev := sales[len(sales)-2]
		for _, name := range Indicators {
			deltas[name] = CoerceNumeric(latest.Indicator(name)) - CoerceNumeric(prev.Indicator(name))
		}
	}

	return deltas
}
