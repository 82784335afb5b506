package driver

import "fmt"

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Drivers should populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
	// Blocked is set when the provider refused to answer for safety reasons.
	Blocked bool
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Blocked {
		return fmt.Sprintf("%s blocked the request: %s", e.Provider, e.Message)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}
