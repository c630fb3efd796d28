package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"merchant-insight-workers/internal/common/database"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/models"
)

// PostgresStore reads merchant reference data from Postgres for deployments
// where the three tables are maintained in the warehouse instead of CSV
// exports.
type PostgresStore struct {
	client *database.PostgresClient
	logger logger.Logger
}

func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-store"}),
	}
}

const profileQuery = `
SELECT merchant_id, name, address, brand_code, industry_category, trade_zone_category, opened_at, closed_at
FROM merchant_profiles
WHERE merchant_id = $1`

const salesQuery = `
SELECT merchant_id, year_month,
       industry_sales_rank_pct, trade_zone_sales_rank_pct, same_industry_sales_ratio,
       industry_closure_ratio, trade_zone_closure_ratio, delivery_sales_ratio, approval_cancel_ratio
FROM monthly_sales
WHERE merchant_id = $1
ORDER BY year_month ASC`

const customerQuery = `
SELECT merchant_id, year_month,
       male_under30_ratio, male_30s_ratio, male_40s_ratio, male_50s_ratio, male_60plus_ratio,
       female_under30_ratio, female_30s_ratio, female_40s_ratio, female_50s_ratio, female_60plus_ratio,
       revisit_ratio, new_customer_ratio
FROM monthly_customers
WHERE merchant_id = $1
ORDER BY year_month ASC`

const searchQuery = `
SELECT merchant_id, name, address, industry_category, trade_zone_category
FROM merchant_profiles
WHERE LOWER(name) LIKE LOWER($1)
  AND ($2 = '' OR address LIKE '%' || $2 || '%' OR trade_zone_category LIKE '%' || $2 || '%')
  AND ($3 = '' OR industry_category LIKE '%' || $3 || '%')
ORDER BY merchant_id ASC`

// GetRecord joins the merchant's profile, sales history and customer history.
func (s *PostgresStore) GetRecord(ctx context.Context, merchantID string) (models.MerchantRecord, error) {
	profile, err := s.getProfile(ctx, merchantID)
	if err != nil {
		return models.MerchantRecord{}, err
	}

	sales, err := s.getSales(ctx, merchantID)
	if err != nil {
		return models.MerchantRecord{}, err
	}

	customer, err := s.getCustomer(ctx, merchantID)
	if err != nil {
		return models.MerchantRecord{}, err
	}

	return models.NewMerchantRecord(profile, sales, customer), nil
}

func (s *PostgresStore) getProfile(ctx context.Context, merchantID string) (models.MerchantProfile, error) {
	row := s.client.QueryRow(ctx, profileQuery, merchantID)

	var p models.MerchantProfile
	var brandCode, openedAt, closedAt sql.NullString
	err := row.Scan(&p.MerchantID, &p.Name, &p.Address, &brandCode, &p.IndustryCategory, &p.TradeZoneCategory, &openedAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MerchantProfile{}, ErrMerchantNotFound
	}
	if err != nil {
		return models.MerchantProfile{}, fmt.Errorf("query merchant profile: %w", err)
	}

	p.BrandCode = brandCode.String
	p.OpenedAt = openedAt.String
	p.ClosedAt = closedAt.String
	return p, nil
}

func (s *PostgresStore) getSales(ctx context.Context, merchantID string) ([]models.MonthlySalesRecord, error) {
	rows, err := s.client.Query(ctx, salesQuery, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	var sales []models.MonthlySalesRecord
	for rows.Next() {
		var rec models.MonthlySalesRecord
		cols := make([]sql.NullFloat64, 7)
		if err := rows.Scan(&rec.MerchantID, &rec.YearMonth,
			&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5], &cols[6]); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		rec.IndustrySalesRankPct = nullableFloat(cols[0])
		rec.TradeZoneSalesRankPct = nullableFloat(cols[1])
		rec.SameIndustrySalesRatio = nullableFloat(cols[2])
		rec.IndustryClosureRatio = nullableFloat(cols[3])
		rec.TradeZoneClosureRatio = nullableFloat(cols[4])
		rec.DeliverySalesRatio = nullableFloat(cols[5])
		rec.ApprovalCancelRatio = nullableFloat(cols[6])
		sales = append(sales, rec)
	}
	return sales, rows.Err()
}

func (s *PostgresStore) getCustomer(ctx context.Context, merchantID string) ([]models.MonthlyCustomerRecord, error) {
	rows, err := s.client.Query(ctx, customerQuery, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query monthly customers: %w", err)
	}
	defer rows.Close()

	var customer []models.MonthlyCustomerRecord
	for rows.Next() {
		var rec models.MonthlyCustomerRecord
		cols := make([]sql.NullFloat64, 12)
		if err := rows.Scan(&rec.MerchantID, &rec.YearMonth,
			&cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
			&cols[5], &cols[6], &cols[7], &cols[8], &cols[9],
			&cols[10], &cols[11]); err != nil {
			return nil, fmt.Errorf("scan monthly customers: %w", err)
		}
		rec.MaleUnder30Ratio = nullableFloat(cols[0])
		rec.Male30sRatio = nullableFloat(cols[1])
		rec.Male40sRatio = nullableFloat(cols[2])
		rec.Male50sRatio = nullableFloat(cols[3])
		rec.Male60PlusRatio = nullableFloat(cols[4])
		rec.FemaleUnder30Ratio = nullableFloat(cols[5])
		rec.Female30sRatio = nullableFloat(cols[6])
		rec.Female40sRatio = nullableFloat(cols[7])
		rec.Female50sRatio = nullableFloat(cols[8])
		rec.Female60PlusRatio = nullableFloat(cols[9])
		rec.RevisitRatio = nullableFloat(cols[10])
		rec.NewCustomerRatio = nullableFloat(cols[11])
		customer = append(customer, rec)
	}
	return customer, rows.Err()
}

// Search lists merchants whose name contains the filter substring.
func (s *PostgresStore) Search(ctx context.Context, filter SearchFilter) ([]models.MerchantSummary, error) {
	pattern := "%" + strings.TrimSpace(filter.Name) + "%"
	rows, err := s.client.Query(ctx, searchQuery, pattern, filter.Location, filter.BusinessType)
	if err != nil {
		return nil, fmt.Errorf("search merchants: %w", err)
	}
	defer rows.Close()

	var results []models.MerchantSummary
	for rows.Next() {
		var m models.MerchantSummary
		if err := rows.Scan(&m.MerchantID, &m.Name, &m.Address, &m.IndustryCategory, &m.TradeZoneCategory); err != nil {
			return nil, fmt.Errorf("scan merchant summary: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
