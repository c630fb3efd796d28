// internal/workers/merchant/search-merchant/handler.go
package searchmerchant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "merchant-insight-workers/internal/common/errors"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/common/metrics"
	"merchant-insight-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "search-merchant"
)

var (
	ErrMerchantNameRequired = errors.New("MERCHANT_NAME_REQUIRED")
)

type Handler struct {
	config     *Config
	store      store.MerchantStore
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, merchantStore store.MerchantStore, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		store:      merchantStore,
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
	if input.MerchantName == "" {
		return nil, ErrMerchantNameRequired
	}

	candidates, err := h.store.Search(ctx, store.SearchFilter{
		Name:         input.MerchantName,
		Location:     input.Location,
		BusinessType: input.BusinessType,
	})
	if err != nil {
		return nil, apperrors.NewMerchantLookupFailedError(err)
	}

	switch len(candidates) {
	case 0:
		return &Output{
			ResultType: ResultNotFound,
			Message:    fmt.Sprintf("no merchant matched %q", input.MerchantName),
		}, nil

	case 1:
		record, err := h.store.GetRecord(ctx, candidates[0].MerchantID)
		if err != nil {
			return nil, apperrors.NewMerchantLookupFailedError(err)
		}
		return &Output{
			ResultType: ResultSingle,
			Merchant:   &record,
			Message:    fmt.Sprintf("merchant %s selected", record.Profile.Name),
		}, nil

	default:
		if len(candidates) > h.config.MaxResults {
			candidates = candidates[:h.config.MaxResults]
		}
		return &Output{
			ResultType: ResultMultiple,
			Candidates: candidates,
			Message:    fmt.Sprintf("%d merchants matched %q, selection required", len(candidates), input.MerchantName),
		}, nil
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
	if errors.Is(err, ErrMerchantNameRequired) {
		return &apperrors.StandardError{
			Code:      "MERCHANT_NAME_REQUIRED",
			Message:   "merchantName is required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	return apperrors.NewMerchantLookupFailedError(err)
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
