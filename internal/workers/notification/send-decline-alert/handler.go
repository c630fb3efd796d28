// internal/workers/notification/send-decline-alert/handler.go
package senddeclinealert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "merchant-insight-workers/internal/common/errors"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-decline-alert"
)

var (
	ErrAlertSendFailed = errors.New("ALERT_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	sesClient  SESService
	snsClient  SNSService
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:     config,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient:  ses.NewFromConfig(awsCfg),
		snsClient:  sns.NewFromConfig(awsCfg),
	}, nil
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
	sentAt := time.Now().UTC().Format(time.RFC3339)
	alertID := uuid.New().String()

	// alerts fire only for severe decline classifications
	if input.PatternType != "Decline" || input.SeverityLevel < h.config.MinSeverityLevel {
		return &Output{
			AlertID: alertID,
			Status:  StatusSkipped,
			SentAt:  sentAt,
		}, nil
	}

	subject := fmt.Sprintf("[Merchant Alert] %s: %s", input.MerchantName, input.SeverityLabel)
	body := h.buildBody(input)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && input.RecipientEmail != "" {
		if err := h.sendEmail(ctx, input.RecipientEmail, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":      err,
				"merchantId": input.MerchantID,
			})
			return nil, fmt.Errorf("%w: email: %v", ErrAlertSendFailed, err)
		}
		emailSent = true
	}

	if h.config.SMSEnabled && input.RecipientPhone != "" && input.SeverityLevel >= h.config.SMSMinLevel {
		if err := h.sendSMS(ctx, input.RecipientPhone, subject); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":      err,
				"merchantId": input.MerchantID,
			})
			return nil, fmt.Errorf("%w: sms: %v", ErrAlertSendFailed, err)
		}
		smsSent = true
	}

	status := StatusSkipped
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("decline alert processed", map[string]interface{}{
		"merchantId":    input.MerchantID,
		"severityLevel": input.SeverityLevel,
		"status":        status,
		"emailSent":     emailSent,
		"smsSent":       smsSent,
	})

	return &Output{
		AlertID:   alertID,
		Status:    status,
		EmailSent: emailSent,
		SMSSent:   smsSent,
		SentAt:    sentAt,
	}, nil
}

func (h *Handler) buildBody(input *Input) string {
	return fmt.Sprintf(
		"Merchant %s (%s) was classified as %q (severity %d/5).\nRecommended strategy intensity: %s.",
		input.MerchantName, input.MerchantID, input.SeverityLabel, input.SeverityLevel, input.StrategyIntensity,
	)
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
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

// failJob normalizes the error and hands it to the shared error handler.
// ALERT_SEND_FAILED is retryable, so delivery failures get retried with
// backoff by the engine instead of surfacing a BPMN error immediately.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := convertError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func convertError(err error) *apperrors.StandardError {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return stdErr
	}
	if errors.Is(err, ErrAlertSendFailed) {
		return &apperrors.StandardError{
			Code:      apperrors.ErrCodeAlertSendFailed,
			Message:   "Alert delivery failed",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	return &apperrors.StandardError{
		Code:      apperrors.ErrCodeAlertSendFailed,
		Message:   "Alert processing failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
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
