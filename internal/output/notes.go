package output

import (
	"fmt"
	"strings"

	"github.com/coinlens/coinlens/internal/estimate"
)

const maxHistoryRunes = 160

func headline(e *Estimate) string {
	if e == nil {
		return ""
	}
	title := strings.TrimSpace(e.MintYear + " " + e.CoinType)
	if c := strings.TrimSpace(e.Condition); c != "" {
		title += " (" + c + ")"
	}
	return title
}

func confidenceLabel(result *estimate.EstimationResult) string {
	level := result.Level()
	raw := ""
	if result != nil {
		raw = strings.TrimSpace(result.Confidence)
	}
	if level == estimate.ConfidenceUnknown && raw != "" {
		return fmt.Sprintf("%s (%q)", level, raw)
	}
	return string(level)
}

// specs joins the physical attributes, skipping blanks.
func specs(v estimate.CoinVariant) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{v.Composition, v.Weight, v.Diameter} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func shorten(value string, max int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if max <= 0 || len(runes) <= max {
		return value
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func sourceLabel(e *Estimate) string {
	if e != nil && e.WithImage {
		return "attributes + photo"
	}
	return "attributes"
}
