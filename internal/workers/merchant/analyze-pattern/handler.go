// internal/workers/merchant/analyze-pattern/handler.go
package analyzepattern

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"merchant-insight-workers/internal/analysis"
	apperrors "merchant-insight-workers/internal/common/errors"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/common/metrics"
	"merchant-insight-workers/internal/knowledge"
	"merchant-insight-workers/internal/models"
	"merchant-insight-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "analyze-pattern"

	topRuleIDs = 3
)

var (
	ErrMerchantIDRequired = errors.New("MERCHANT_ID_REQUIRED")
)

type Handler struct {
	config     *Config
	store      store.MerchantStore
	rules      []models.PatternRule
	retriever  *knowledge.Retriever // nil when knowledge search is disabled
	redis      *redis.Client        // nil disables result caching
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, merchantStore store.MerchantStore, rules []models.PatternRule, retriever *knowledge.Retriever, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		store:      merchantStore,
		rules:      rules,
		retriever:  retriever,
		redis:      redisClient,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, parseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MerchantID == "" {
		return nil, ErrMerchantIDRequired
	}

	record, err := h.store.GetRecord(ctx, input.MerchantID)
	if errors.Is(err, store.ErrMerchantNotFound) {
		// unknown merchant is a normal negative result
		return &Output{
			Found:      false,
			MerchantID: input.MerchantID,
			Tips:       []models.Tip{},
			Message:    fmt.Sprintf("merchant %s not found", input.MerchantID),
		}, nil
	}
	if err != nil {
		return nil, apperrors.NewMerchantLookupFailedError(err)
	}

	cacheKey := h.buildCacheKey(input, record.LatestYearMonth)
	if cached, ok := h.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	output := h.analyze(ctx, input, record)
	h.toCache(ctx, cacheKey, output)

	return output, nil
}

func (h *Handler) analyze(ctx context.Context, input *Input, record models.MerchantRecord) *Output {
	output := &Output{
		Found:         true,
		MerchantID:    input.MerchantID,
		LatestMetrics: record.Latest,
		Tips:          []models.Tip{},
	}

	deltas := analysis.ComputeDeltas(record.Sales)
	if len(deltas) == 0 {
		output.Message = "no evaluable pattern: merchant has no sales history"
		return output
	}
	output.Deltas = deltas

	matched := analysis.MatchRules(deltas, h.rules)
	if len(matched) == 0 {
		output.Message = "no pattern matched the current deltas"
		return output
	}

	top := matched[0]
	severity := analysis.ClassifySeverity(&top)

	output.Pattern = &top
	output.Severity = &severity
	for i, rule := range matched {
		if i == topRuleIDs {
			break
		}
		output.MatchedRuleIDs = append(output.MatchedRuleIDs, rule.RuleID)
	}
	output.Message = fmt.Sprintf("pattern %s matched at severity %d (%s)", top.RuleID, severity.Level, severity.Label)

	metrics.PatternsMatched.WithLabelValues(string(top.PatternType)).Inc()
	metrics.SeverityAssigned.WithLabelValues(strconv.Itoa(severity.Level)).Inc()

	h.logger.Info("pattern analysis complete", map[string]interface{}{
		"merchantId":    input.MerchantID,
		"ruleId":        top.RuleID,
		"patternType":   string(top.PatternType),
		"severityLevel": severity.Level,
		"matchedRules":  len(matched),
	})

	if input.IncludeTips && h.retriever != nil {
		result := h.retriever.Search(ctx, buildTipQuery(record.Profile, top, severity), h.config.SimilarityThreshold, h.config.MaxTips)
		output.Tips = result.Tips
		output.TipsDiagnostic = result.Diagnostic
	}

	return output
}

// buildTipQuery composes a free-text retrieval query from the classification
// and the merchant's profile context.
func buildTipQuery(profile models.MerchantProfile, rule models.PatternRule, severity models.SeverityResult) string {
	subject := "sales decline response marketing"
	if rule.PatternType == models.PatternGrowth {
		subject = "sales growth marketing strategy"
	}

	parts := []string{profile.IndustryCategory, profile.TradeZoneCategory, subject, severity.StrategyIntensity}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (h *Handler) buildCacheKey(input *Input, latestYearMonth string) string {
	return fmt.Sprintf("analysis:%s:%s:tips=%t", input.MerchantID, latestYearMonth, input.IncludeTips)
}

func (h *Handler) fromCache(ctx context.Context, key string) (*Output, bool) {
	if h.redis == nil {
		return nil, false
	}
	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var cached Output
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func (h *Handler) toCache(ctx context.Context, key string, output *Output) {
	if h.redis == nil {
		return
	}
	// degraded tip retrievals are not worth pinning for the TTL
	if output.TipsDiagnostic != "" {
		return
	}
	data, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Debug("analysis cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// failJob normalizes the error and hands it to the shared error handler, which
// decides between a retryable fail and a BPMN throw based on the error code.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := convertError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func convertError(err error) *apperrors.StandardError {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return stdErr
	}
	if errors.Is(err, ErrMerchantIDRequired) {
		return &apperrors.StandardError{
			Code:      "MERCHANT_ID_REQUIRED",
			Message:   "merchantId is required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	return apperrors.NewAnalysisFailedError(err.Error())
}

func parseError(err error) *apperrors.StandardError {
	return &apperrors.StandardError{
		Code:      "PARSE_ERROR",
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
