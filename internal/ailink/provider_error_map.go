package ailink

import (
	"context"
	"errors"
	"strings"

	"github.com/coinlens/coinlens/internal/ailink/driver"
)

// Provider failure codes. They are diagnostic only and never shown to end users.
const (
	CodeProviderTimeout    = "AILINK_PROVIDER_TIMEOUT"
	CodeProviderAuth       = "AILINK_PROVIDER_AUTH"
	CodeProviderRateLimit  = "AILINK_PROVIDER_RATE_LIMIT"
	CodeProviderBadRequest = "AILINK_PROVIDER_BAD_REQUEST"
	CodeProviderBlocked    = "AILINK_PROVIDER_BLOCKED"
	CodeProviderDown       = "AILINK_PROVIDER_UNAVAILABLE"
	CodeProviderError      = "AILINK_PROVIDER_ERROR"
	CodeNotConfigured      = "AILINK_NOT_CONFIGURED"
)

// MapProviderError classifies a driver/transport error.
func MapProviderError(err error) *ProviderFailure {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderFailure{Code: CodeProviderTimeout, Message: "provider request timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderFailure{Code: CodeProviderTimeout, Message: "provider request canceled"}
	}

	var cerr *ConfigError
	if errors.As(err, &cerr) {
		return &ProviderFailure{Code: CodeNotConfigured, Message: "provider not configured", Details: safeOneLine(cerr.Error())}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := safeOneLine(strings.TrimSpace(perr.Message))
		switch {
		case perr.Blocked:
			return &ProviderFailure{Code: CodeProviderBlocked, Message: "provider refused the request", Details: details}
		case status == 401 || status == 403:
			return &ProviderFailure{Code: CodeProviderAuth, Message: "provider authentication failed", Details: details}
		case status == 429:
			return &ProviderFailure{Code: CodeProviderRateLimit, Message: "provider rate limited", Details: details}
		case status >= 500 && status <= 599:
			return &ProviderFailure{Code: CodeProviderDown, Message: "provider unavailable", Details: details}
		case status >= 400 && status <= 499:
			return &ProviderFailure{Code: CodeProviderBadRequest, Message: "provider rejected request", Details: details}
		default:
			return &ProviderFailure{Code: CodeProviderError, Message: "provider request failed", Details: details}
		}
	}

	return &ProviderFailure{Code: CodeProviderError, Message: "provider request failed", Details: safeOneLine(err.Error())}
}
