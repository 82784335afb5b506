package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

// FormatEstimate renders an estimate as Markdown.
func (f *MarkdownFormatter) FormatEstimate(e *Estimate) (string, error) {
	if e == nil || e.Result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(headline(e))))
	sb.WriteString(fmt.Sprintf("**Confidence**: %s  \n", confidenceLabel(e.Result)))
	sb.WriteString(fmt.Sprintf("**Source**: %s\n\n", sourceLabel(e)))

	if len(e.Result.Variants) == 0 {
		sb.WriteString("_No variants identified._\n")
		return sb.String(), nil
	}

	sb.WriteString("| Variant | Value | Specs |\n")
	sb.WriteString("|---------|-------|-------|\n")
	for _, v := range e.Result.Variants {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			escapeMarkdownCell(v.Description),
			escapeMarkdownCell(v.EstimatedValue),
			escapeMarkdownCell(specs(v)),
		))
	}

	sb.WriteString("\n### History\n\n")
	for _, v := range e.Result.Variants {
		history := strings.TrimSpace(v.History)
		if history == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", v.Description, strings.Join(strings.Fields(history), " ")))
		if url := strings.TrimSpace(v.ImageURL); url != "" {
			sb.WriteString(fmt.Sprintf("  ![%s](%s)\n", v.Description, url))
		}
	}
	return sb.String(), nil
}

// FormatCatalog renders the catalog as Markdown.
func (f *MarkdownFormatter) FormatCatalog(c *Catalog) (string, error) {
	if c == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("| Denomination | Series |\n")
	sb.WriteString("|--------------|--------|\n")
	for _, d := range c.Denominations {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n",
			escapeMarkdownCell(d.Name),
			escapeMarkdownCell(strings.Join(d.Series, ", ")),
		))
	}

	conditions := make([]string, 0, len(c.Conditions))
	for _, cond := range c.Conditions {
		conditions = append(conditions, string(cond))
	}
	sb.WriteString(fmt.Sprintf("\n**Conditions**: %s\n", strings.Join(conditions, ", ")))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}
