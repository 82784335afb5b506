package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatEstimate renders one variant per row with a confidence footer.
func (f *TableFormatter) FormatEstimate(e *Estimate) (string, error) {
	if e == nil || e.Result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(tableStyle())
	t.SetTitle(headline(e))
	t.AppendHeader(table.Row{"#", "Variant", "Value", "Specs", "History"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 36},
		{Number: 4, WidthMax: 32},
		{Number: 5, WidthMax: 48},
	})

	for i, v := range e.Result.Variants {
		t.AppendRow(table.Row{
			i + 1,
			v.Description,
			v.EstimatedValue,
			specs(v),
			shorten(v.History, maxHistoryRunes),
		})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d variant(s)", len(e.Result.Variants)),
		"confidence: " + confidenceLabel(e.Result),
		sourceLabel(e),
		"",
	})
	if len(e.Result.Variants) == 0 {
		t.AppendRow(table.Row{"", "no variants identified", "", "", ""})
	}

	return t.Render(), nil
}

// FormatCatalog renders denominations and their series.
func (f *TableFormatter) FormatCatalog(c *Catalog) (string, error) {
	if c == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(tableStyle())
	t.AppendHeader(table.Row{"Denomination", "Series"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignLeft}})
	for _, d := range c.Denominations {
		t.AppendRow(table.Row{d.Name, strings.Join(d.Series, "\n")})
		t.AppendSeparator()
	}

	conditions := make([]string, 0, len(c.Conditions))
	for _, cond := range c.Conditions {
		conditions = append(conditions, string(cond))
	}
	t.AppendFooter(table.Row{"Conditions", strings.Join(conditions, ", ")})
	return t.Render(), nil
}

// tableStyle keeps footers in their original case.
func tableStyle() table.Style {
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	return style
}
