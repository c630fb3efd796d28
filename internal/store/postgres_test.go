package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"merchant-insight-workers/internal/common/database"
	"merchant-insight-workers/internal/common/logger"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := &database.PostgresClient{DB: db}
	return NewPostgresStore(client, logger.NewZapAdapter(zaptest.NewLogger(t))), mock
}

func expectProfile(mock sqlmock.Sqlmock, merchantID string) {
	rows := sqlmock.NewRows([]string{
		"merchant_id", "name", "address", "brand_code", "industry_category", "trade_zone_category", "opened_at", "closed_at",
	}).AddRow(merchantID, "Sunrise Chicken", "Mapo-gu, Seoul", nil, "Chicken", "Hongdae", "20190301", nil)

	mock.ExpectQuery(`SELECT merchant_id, name, address, brand_code, industry_category, trade_zone_category, opened_at, closed_at\s+FROM merchant_profiles`).
		WithArgs(merchantID).
		WillReturnRows(rows)
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockStore(t)

	expectProfile(mock, "M001")

	salesRows := sqlmock.NewRows([]string{
		"merchant_id", "year_month",
		"industry_sales_rank_pct", "trade_zone_sales_rank_pct", "same_industry_sales_ratio",
		"industry_closure_ratio", "trade_zone_closure_ratio", "delivery_sales_ratio", "approval_cancel_ratio",
	}).
		AddRow("M001", "202401", 40.0, 35.0, 1.1, nil, 0.2, 12.0, 1.5).
		AddRow("M001", "202402", 55.0, 38.0, 0.9, nil, 0.3, 10.0, 1.8)
	mock.ExpectQuery(`FROM monthly_sales`).WithArgs("M001").WillReturnRows(salesRows)

	customerRows := sqlmock.NewRows([]string{
		"merchant_id", "year_month",
		"male_under30_ratio", "male_30s_ratio", "male_40s_ratio", "male_50s_ratio", "male_60plus_ratio",
		"female_under30_ratio", "female_30s_ratio", "female_40s_ratio", "female_50s_ratio", "female_60plus_ratio",
		"revisit_ratio", "new_customer_ratio",
	}).AddRow("M001", "202402", 10.0, 15.0, 12.0, 8.0, 5.0, 14.0, 16.0, 10.0, 6.0, 4.0, 35.0, 22.0)
	mock.ExpectQuery(`FROM monthly_customers`).WithArgs("M001").WillReturnRows(customerRows)

	rec, err := s.GetRecord(context.Background(), "M001")
	require.NoError(t, err)

	assert.Equal(t, "Sunrise Chicken", rec.Profile.Name)
	assert.Empty(t, rec.Profile.BrandCode)
	require.Len(t, rec.Sales, 2)
	assert.Equal(t, "202402", rec.Sales[1].YearMonth)
	require.NotNil(t, rec.Sales[1].IndustrySalesRankPct)
	assert.Equal(t, 55.0, *rec.Sales[1].IndustrySalesRankPct)
	assert.Nil(t, rec.Sales[1].IndustryClosureRatio)

	assert.Equal(t, "202402", rec.LatestYearMonth)
	assert.Equal(t, 55.0, rec.Latest["industry_sales_rank_pct"])
	assert.Equal(t, 35.0, rec.Latest["revisit_ratio"])
	_, ok := rec.Latest["industry_closure_ratio"]
	assert.False(t, ok, "null column must stay absent from the latest snapshot")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM merchant_profiles`).
		WithArgs("NOPE").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetRecord(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, ErrMerchantNotFound))
}

func TestPostgresStore_GetRecord_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	expectProfile(mock, "M001")
	mock.ExpectQuery(`FROM monthly_sales`).
		WithArgs("M001").
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetRecord(context.Background(), "M001")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMerchantNotFound))
}

func TestPostgresStore_Search(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"merchant_id", "name", "address", "industry_category", "trade_zone_category",
	}).
		AddRow("M001", "Sunrise Chicken", "Mapo-gu, Seoul", "Chicken", "Hongdae").
		AddRow("M007", "Sunrise Chicken Mapo", "Mapo-gu, Seoul", "Chicken", "Hongdae")

	mock.ExpectQuery(`FROM merchant_profiles`).
		WithArgs("%Sunrise%", "Mapo", "Chicken").
		WillReturnRows(rows)

	results, err := s.Search(context.Background(), SearchFilter{Name: "Sunrise", Location: "Mapo", BusinessType: "Chicken"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "M001", results[0].MerchantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Search_NoResults(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM merchant_profiles`).
		WithArgs("%Nothing%", "", "").
		WillReturnRows(sqlmock.NewRows([]string{
			"merchant_id", "name", "address", "industry_category", "trade_zone_category",
		}))

	results, err := s.Search(context.Background(), SearchFilter{Name: "Nothing"})
	require.NoError(t, err)
	assert.Empty(t, results)
}
