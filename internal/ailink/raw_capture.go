package ailink

import (
	"encoding/json"
	"strings"
)

// TruncateRaw copies at most max bytes of a raw model payload. It returns nil
// when raw capture is disabled (max <= 0).
func TruncateRaw(input []byte, max int) json.RawMessage {
	if max <= 0 || len(input) == 0 {
		return nil
	}
	if len(input) > max {
		input = input[:max]
	}
	out := make(json.RawMessage, len(input))
	copy(out, input)
	return out
}

// RawCaptureLimit returns how many bytes of a failing model payload may be
// kept for diagnostics. Zero disables capture.
func (c Config) RawCaptureLimit() int {
	if !c.Debug.CaptureRawEnabled || c.Debug.CaptureRawMaxBytes <= 0 {
		return 0
	}
	return c.Debug.CaptureRawMaxBytes
}

func safeOneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
