package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewExternalError("stripe", "Payment service unavailable").WithCause(cause)

	wrapped := fmt.Errorf("create checkout: %w", err)

	assert.True(t, IsType(wrapped, ErrorTypeExternal))
	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", GetCode(wrapped))
	assert.Equal(t, "stripe", err.Details["service"])
	assert.ErrorIs(t, wrapped, cause)
}

func TestUpgradeErrors(t *testing.T) {
	quota := NewQuotaExceededError(5)
	assert.Equal(t, ErrorTypeUpgradeRequired, quota.Type)
	assert.Equal(t, CodeQuotaExceeded, quota.Code)
	assert.Equal(t, UpgradePath, quota.Details["upgrade_url"])
	assert.Equal(t, "5", quota.Details["limit"])

	pro := NewUpgradeRequiredError("GitHub scanning is a PRO feature")
	assert.Equal(t, CodeProRequired, pro.Code)
	assert.Equal(t, UpgradePath, pro.Details["upgrade_url"])
}

func TestGetTypeDefaults(t *testing.T) {
	plain := fmt.Errorf("boom")
	assert.Equal(t, ErrorTypeInternal, GetType(plain))
	assert.Equal(t, "UNKNOWN_ERROR", GetCode(plain))
	assert.False(t, IsNotFound(plain))
	assert.True(t, IsNotFound(NewNotFoundError("scan")))
}
