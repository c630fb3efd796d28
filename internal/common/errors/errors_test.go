package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError_MapsCodeAndRetries(t *testing.T) {
	stdErr := NewMerchantLookupFailedError(fmt.Errorf("connection reset"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "MERCHANT_LOOKUP_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "connection reset", bpmnErr.Details)
}

func TestConvertToBPMNError_NonRetryableGetsZeroRetries(t *testing.T) {
	stdErr := NewAnalysisFailedError("bad variables")

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "ANALYSIS_FAILED", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnmappedCodeFallsBack(t *testing.T) {
	stdErr := &StandardError{Code: "SOMETHING_LOCAL", Message: "local"}

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "SOMETHING_LOCAL", bpmnErr.Code)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeMerchantLookupFailed))
	assert.Equal(t, 3, GetRetryCount(ErrCodeAlertSendFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeQueryTimeout))
	assert.Equal(t, 0, GetRetryCount(ErrCodeMerchantNotFound))
	assert.Equal(t, 0, GetRetryCount(ErrCodeAnalysisFailed))
}

func TestToErrorVariables(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewAlertSendFailedError("email", fmt.Errorf("throttled")))

	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "ALERT_SEND_FAILED", vars["errorCode"])
	assert.Equal(t, true, vars["retryable"])
	assert.Equal(t, "ALERT_SEND_FAILED", vars["originalErrorCode"])
	require.Contains(t, vars, "timestamp")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "MERCHANT", GetErrorCategory(ErrCodeMerchantNotFound))
	assert.Equal(t, "REFERENCE_DATA", GetErrorCategory(ErrCodeCatalogInvalid))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeKnowledgeSearchTimeout))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeAlertSendFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}
