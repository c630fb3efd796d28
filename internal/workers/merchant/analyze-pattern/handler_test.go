// internal/workers/merchant/analyze-pattern/handler_test.go
package analyzepattern

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "merchant-insight-workers/internal/common/errors"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/dataset"
	"merchant-insight-workers/internal/knowledge"
	"merchant-insight-workers/internal/models"
	"merchant-insight-workers/internal/store"
)

func fp(v float64) *float64 { return &v }

// countingStore wraps a store to observe cache behavior.
type countingStore struct {
	inner store.MerchantStore
	gets  int
}

func (c *countingStore) GetRecord(ctx context.Context, id string) (models.MerchantRecord, error) {
	c.gets++
	return c.inner.GetRecord(ctx, id)
}

func (c *countingStore) Search(ctx context.Context, f store.SearchFilter) ([]models.MerchantSummary, error) {
	return c.inner.Search(ctx, f)
}

func decliningMerchantStore() *dataset.Dataset {
	profiles := []models.MerchantProfile{
		{MerchantID: "M001", Name: "Sunrise Chicken", IndustryCategory: "Chicken", TradeZoneCategory: "Hongdae"},
		{MerchantID: "M002", Name: "New Merchant", IndustryCategory: "Cafe"},
	}
	sales := map[string][]models.MonthlySalesRecord{
		"M001": {
			{MerchantID: "M001", YearMonth: "202401", IndustrySalesRankPct: fp(40.0)},
			{MerchantID: "M001", YearMonth: "202402", IndustrySalesRankPct: fp(55.0)},
		},
		// M002 has no sales history
	}
	customers := map[string][]models.MonthlyCustomerRecord{
		"M001": {
			{MerchantID: "M001", YearMonth: "202402", RevisitRatio: fp(35.0)},
		},
	}
	return dataset.New(profiles, sales, customers)
}

func severeDeclineRule() models.PatternRule {
	return models.PatternRule{
		RuleID:      "DECLINE_RANK_RISE",
		PatternType: models.PatternDecline,
		Condition:   map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp},
		Metrics:     models.RuleMetrics{Confidence: fp(0.95), Lift: fp(1.6)},
	}
}

func newTestHandler(t *testing.T, rules []models.PatternRule) *Handler {
	return NewHandler(LoadConfig(), decliningMerchantStore(), rules, nil, nil, logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func TestExecute_DecliningMerchant(t *testing.T) {
	h := newTestHandler(t, []models.PatternRule{severeDeclineRule()})

	output, err := h.Execute(context.Background(), &Input{MerchantID: "M001"})
	require.NoError(t, err)

	assert.True(t, output.Found)
	require.NotNil(t, output.Pattern)
	assert.Equal(t, "DECLINE_RANK_RISE", output.Pattern.RuleID)
	assert.Equal(t, 15.0, output.Deltas[models.IndustrySalesRankPct])

	require.NotNil(t, output.Severity)
	assert.Equal(t, 5, output.Severity.Level)
	assert.Equal(t, "very severe decline", output.Severity.Label)
	assert.Equal(t, "very aggressive", output.Severity.StrategyIntensity)

	assert.Equal(t, []string{"DECLINE_RANK_RISE"}, output.MatchedRuleIDs)
	assert.Equal(t, 55.0, output.LatestMetrics["industry_sales_rank_pct"])
	assert.Equal(t, 35.0, output.LatestMetrics["revisit_ratio"])
}

func TestExecute_NoSalesHistory(t *testing.T) {
	h := newTestHandler(t, []models.PatternRule{severeDeclineRule()})

	output, err := h.Execute(context.Background(), &Input{MerchantID: "M002"})
	require.NoError(t, err)

	assert.True(t, output.Found)
	assert.Nil(t, output.Pattern)
	assert.Nil(t, output.Severity)
	assert.Empty(t, output.Deltas)
	assert.Contains(t, output.Message, "no evaluable pattern")
}

func TestExecute_UnknownMerchant(t *testing.T) {
	h := newTestHandler(t, []models.PatternRule{severeDeclineRule()})

	output, err := h.Execute(context.Background(), &Input{MerchantID: "GHOST"})
	require.NoError(t, err)

	assert.False(t, output.Found)
	assert.Nil(t, output.Pattern)
	assert.Nil(t, output.Severity)
}

func TestExecute_NoMatchingRuleStillPopulatesContext(t *testing.T) {
	// requires the rank percentile to fall, but it rises in the fixture
	rule := models.PatternRule{
		RuleID:      "GROWTH_RANK_FALL",
		PatternType: models.PatternGrowth,
		Condition:   map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionDown},
		Metrics:     models.RuleMetrics{Confidence: fp(0.9), Lift: fp(0.6)},
	}
	h := newTestHandler(t, []models.PatternRule{rule})

	output, err := h.Execute(context.Background(), &Input{MerchantID: "M001"})
	require.NoError(t, err)

	assert.True(t, output.Found)
	assert.Nil(t, output.Pattern)
	assert.Nil(t, output.Severity)
	assert.Equal(t, 55.0, output.LatestMetrics["industry_sales_rank_pct"])
	assert.Equal(t, 15.0, output.Deltas[models.IndustrySalesRankPct])
}

func TestExecute_TopThreeRuleIDs(t *testing.T) {
	cond := map[string]models.Direction{models.IndustrySalesRankPct: models.DirectionUp}
	mk := func(id string, conf float64) models.PatternRule {
		return models.PatternRule{
			RuleID:      id,
			PatternType: models.PatternDecline,
			Condition:   cond,
			Metrics:     models.RuleMetrics{Confidence: fp(conf), Lift: fp(1.2)},
		}
	}
	h := newTestHandler(t, []models.PatternRule{
		mk("R1", 0.7), mk("R2", 0.95), mk("R3", 0.8), mk("R4", 0.9),
	})

	output, err := h.Execute(context.Background(), &Input{MerchantID: "M001"})
	require.NoError(t, err)

	assert.Equal(t, []string{"R2", "R4", "R3"}, output.MatchedRuleIDs)
	assert.Equal(t, "R2", output.Pattern.RuleID)
}

func TestExecute_MissingMerchantIDFails(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMerchantIDRequired)
}

func TestExecute_EmptyTipsDoNotDegradeAnalysis(t *testing.T) {
	esServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Write([]byte(`{"hits": {"hits": []}}`))
	}))
	t.Cleanup(esServer.Close)

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esServer.URL}})
	require.NoError(t, err)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	retriever := knowledge.NewRetriever(esClient, nil, log, "merchant-tips", time.Minute, 2*time.Second)
	h := NewHandler(LoadConfig(), decliningMerchantStore(), []models.PatternRule{severeDeclineRule()}, retriever, nil, log)

	output, err := h.Execute(context.Background(), &Input{MerchantID: "M001", IncludeTips: true})
	require.NoError(t, err)

	assert.Empty(t, output.Tips)
	assert.Empty(t, output.TipsDiagnostic)
	require.NotNil(t, output.Pattern)
	require.NotNil(t, output.Severity)
	assert.Equal(t, 5, output.Severity.Level)
}

func TestExecute_UnreachableKnowledgeDegradesToDiagnostic(t *testing.T) {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://127.0.0.1:1"}})
	require.NoError(t, err)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	retriever := knowledge.NewRetriever(esClient, nil, log, "merchant-tips", time.Minute, time.Second)
	h := NewHandler(LoadConfig(), decliningMerchantStore(), []models.PatternRule{severeDeclineRule()}, retriever, nil, log)

	output, err := h.Execute(context.Background(), &Input{MerchantID: "M001", IncludeTips: true})
	require.NoError(t, err)

	assert.Empty(t, output.Tips)
	assert.NotEmpty(t, output.TipsDiagnostic)
	require.NotNil(t, output.Severity)
	assert.Equal(t, 5, output.Severity.Level)
}

func TestExecute_CachesResultPerLatestMonth(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	counting := &countingStore{inner: decliningMerchantStore()}
	h := NewHandler(LoadConfig(), counting, []models.PatternRule{severeDeclineRule()}, nil, redisClient, logger.NewZapAdapter(zaptest.NewLogger(t)))

	first, err := h.Execute(context.Background(), &Input{MerchantID: "M001"})
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), &Input{MerchantID: "M001"})
	require.NoError(t, err)

	// record is always fetched (the cache key needs the latest month) but
	// the second result comes from cache
	assert.Equal(t, 2, counting.gets)
	assert.Equal(t, first.Pattern.RuleID, second.Pattern.RuleID)
	assert.Equal(t, first.Severity, second.Severity)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "analysis:M001:202402")
}

type failingStore struct{}

func (failingStore) GetRecord(ctx context.Context, id string) (models.MerchantRecord, error) {
	return models.MerchantRecord{}, errors.New("connection refused")
}

func (failingStore) Search(ctx context.Context, f store.SearchFilter) ([]models.MerchantSummary, error) {
	return nil, errors.New("connection refused")
}

func TestExecute_StoreFailureIsRetryableLookupError(t *testing.T) {
	h := NewHandler(LoadConfig(), failingStore{}, nil, nil, nil, logger.NewZapAdapter(zaptest.NewLogger(t)))

	_, err := h.Execute(context.Background(), &Input{MerchantID: "M001"})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeMerchantLookupFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 3, apperrors.GetRetryCount(stdErr.Code))
}

func TestConvertError_SentinelBecomesNonRetryableCode(t *testing.T) {
	stdErr := convertError(fmt.Errorf("bad input: %w", ErrMerchantIDRequired))

	assert.Equal(t, apperrors.ErrorCode("MERCHANT_ID_REQUIRED"), stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestConvertError_PassesThroughStandardError(t *testing.T) {
	orig := apperrors.NewMerchantLookupFailedError(errors.New("store down"))

	assert.Same(t, orig, convertError(orig))
}

func TestConvertError_UnknownErrorBecomesAnalysisFailure(t *testing.T) {
	stdErr := convertError(errors.New("boom"))

	assert.Equal(t, apperrors.ErrCodeAnalysisFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, "boom", stdErr.Details)
}

func TestParseErrorIsNonRetryable(t *testing.T) {
	stdErr := parseError(errors.New("unexpected end of JSON input"))

	assert.Equal(t, apperrors.ErrorCode("PARSE_ERROR"), stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "unexpected end")
}
