package output

import (
	"fmt"
	"strings"

	"github.com/coinlens/coinlens/internal/estimate"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Estimate pairs a validated result with the request that produced it.
type Estimate struct {
	CoinType  string                     `json:"coinType"`
	MintYear  string                     `json:"mintYear"`
	Condition string                     `json:"condition,omitempty"`
	WithImage bool                       `json:"withImage"`
	Result    *estimate.EstimationResult `json:"result"`
}

// Catalog is the selectable coin list plus condition labels.
type Catalog struct {
	Denominations []estimate.Denomination `json:"denominations"`
	Conditions    []estimate.Condition    `json:"conditions"`
}

// Formatter renders estimates and the coin catalog.
type Formatter interface {
	FormatEstimate(e *Estimate) (string, error)
	FormatCatalog(c *Catalog) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// CatalogFromEstimate builds the catalog view from the estimate package.
func CatalogFromEstimate() *Catalog {
	return &Catalog{Denominations: estimate.Catalog(), Conditions: estimate.Conditions()}
}
