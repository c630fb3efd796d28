// Package models defines the merchant analysis domain types shared by the
// dataset layer, the analysis core and the tool workers.
package models

import "sort"

// Indicator names used by sales records, delta computation and the rule catalog.
const (
	IndustrySalesRankPct   = "industry_sales_rank_pct"
	TradeZoneSalesRankPct  = "trade_zone_sales_rank_pct"
	SameIndustrySalesRatio = "same_industry_sales_ratio"
	IndustryClosureRatio   = "industry_closure_ratio"
	TradeZoneClosureRatio  = "trade_zone_closure_ratio"
	DeliverySalesRatio     = "delivery_sales_ratio"
	ApprovalCancelRatio    = "approval_cancel_ratio"
)

// MerchantProfile holds immutable per-merchant attributes.
type MerchantProfile struct {
	MerchantID        string `json:"merchantId"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	BrandCode         string `json:"brandCode,omitempty"`
	IndustryCategory  string `json:"industryCategory"`
	TradeZoneCategory string `json:"tradeZoneCategory"`
	OpenedAt          string `json:"openedAt,omitempty"`
	ClosedAt          string `json:"closedAt,omitempty"`
}

// MonthlySalesRecord is one (merchant, year-month) row of sales indicators.
// Rank-percentile indicators: lower is better relative standing. Ratio
// indicators: higher than baseline is outperformance. Missing values stay
// nil until delta computation coerces them.
type MonthlySalesRecord struct {
	MerchantID string `json:"merchantId"`
	YearMonth  string `json:"yearMonth"` // YYYYMM

	IndustrySalesRankPct   *float64 `json:"industrySalesRankPct,omitempty"`
	TradeZoneSalesRankPct  *float64 `json:"tradeZoneSalesRankPct,omitempty"`
	SameIndustrySalesRatio *float64 `json:"sameIndustrySalesRatio,omitempty"`
	IndustryClosureRatio   *float64 `json:"industryClosureRatio,omitempty"`
	TradeZoneClosureRatio  *float64 `json:"tradeZoneClosureRatio,omitempty"`
	DeliverySalesRatio     *float64 `json:"deliverySalesRatio,omitempty"`
	ApprovalCancelRatio    *float64 `json:"approvalCancelRatio,omitempty"`
}

// Indicator returns the named indicator value, nil when absent or unknown.
func (r MonthlySalesRecord) Indicator(name string) *float64 {
	switch name {
	case IndustrySalesRankPct:
		return r.IndustrySalesRankPct
	case TradeZoneSalesRankPct:
		return r.TradeZoneSalesRankPct
	case SameIndustrySalesRatio:
		return r.SameIndustrySalesRatio
	case IndustryClosureRatio:
		return r.IndustryClosureRatio
	case TradeZoneClosureRatio:
		return r.TradeZoneClosureRatio
	case DeliverySalesRatio:
		return r.DeliverySalesRatio
	case ApprovalCancelRatio:
		return r.ApprovalCancelRatio
	default:
		return nil
	}
}

// MonthlyCustomerRecord is one (merchant, year-month) row of customer-mix
// ratios. Same ordering and sparsity rules as sales records.
type MonthlyCustomerRecord struct {
	MerchantID string `json:"merchantId"`
	YearMonth  string `json:"yearMonth"` // YYYYMM

	MaleUnder30Ratio   *float64 `json:"maleUnder30Ratio,omitempty"`
	Male30sRatio       *float64 `json:"male30sRatio,omitempty"`
	Male40sRatio       *float64 `json:"male40sRatio,omitempty"`
	Male50sRatio       *float64 `json:"male50sRatio,omitempty"`
	Male60PlusRatio    *float64 `json:"male60PlusRatio,omitempty"`
	FemaleUnder30Ratio *float64 `json:"femaleUnder30Ratio,omitempty"`
	Female30sRatio     *float64 `json:"female30sRatio,omitempty"`
	Female40sRatio     *float64 `json:"female40sRatio,omitempty"`
	Female50sRatio     *float64 `json:"female50sRatio,omitempty"`
	Female60PlusRatio  *float64 `json:"female60PlusRatio,omitempty"`
	RevisitRatio       *float64 `json:"revisitRatio,omitempty"`
	NewCustomerRatio   *float64 `json:"newCustomerRatio,omitempty"`
}

// MerchantRecord is the unified per-merchant view handed to the analysis
// core: profile, ordered histories and a flattened latest snapshot.
type MerchantRecord struct {
	Profile         MerchantProfile         `json:"profile"`
	Sales           []MonthlySalesRecord    `json:"sales"`
	Customer        []MonthlyCustomerRecord `json:"customer"`
	Latest          map[string]float64      `json:"latest"`
	LatestYearMonth string                  `json:"latestYearMonth,omitempty"`
}

// NewMerchantRecord builds a MerchantRecord: sorts both histories ascending
// by year-month and flattens the last sales and last customer rows into the
// Latest snapshot. Missing values are omitted from the snapshot, not zeroed.
func NewMerchantRecord(profile MerchantProfile, sales []MonthlySalesRecord, customer []MonthlyCustomerRecord) MerchantRecord {
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].YearMonth < sales[j].YearMonth
	})
	sort.SliceStable(customer, func(i, j int) bool {
		return customer[i].YearMonth < customer[j].YearMonth
	})

	latest := make(map[string]float64)
	latestYM := ""

	if len(sales) > 0 {
		last := sales[len(sales)-1]
		latestYM = last.YearMonth
		for _, name := range []string{
			IndustrySalesRankPct,
			TradeZoneSalesRankPct,
			SameIndustrySalesRatio,
			IndustryClosureRatio,
			TradeZoneClosureRatio,
			DeliverySalesRatio,
			ApprovalCancelRatio,
		} {
			if v := last.Indicator(name); v != nil {
				latest[name] = *v
			}
		}
	}

	if len(customer) > 0 {
		last := customer[len(customer)-1]
		if latestYM == "" {
			latestYM = last.YearMonth
		}
		put := func(key string, v *float64) {
			if v != nil {
				latest[key] = *v
			}
		}
		put("male_under30_ratio", last.MaleUnder30Ratio)
		put("male_30s_ratio", last.Male30sRatio)
		put("male_40s_ratio", last.Male40sRatio)
		put("male_50s_ratio", last.Male50sRatio)
		put("male_60plus_ratio", last.Male60PlusRatio)
		put("female_under30_ratio", last.FemaleUnder30Ratio)
		put("female_30s_ratio", last.Female30sRatio)
		put("female_40s_ratio", last.Female40sRatio)
		put("female_50s_ratio", last.Female50sRatio)
		put("female_60plus_ratio", last.Female60PlusRatio)
		put("revisit_ratio", last.RevisitRatio)
		put("new_customer_ratio", last.NewCustomerRatio)
	}

	return MerchantRecord{
		Profile:         profile,
		Sales:           sales,
		Customer:        customer,
		Latest:          latest,
		LatestYearMonth: latestYM,
	}
}

// MerchantSummary is the compact selection-list entry returned by search.
type MerchantSummary struct {
	MerchantID        string `json:"merchantId"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	IndustryCategory  string `json:"industryCategory"`
	TradeZoneCategory string `json:"tradeZoneCategory"`
}
