package output

import (
	"encoding/json"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatEstimate renders the request summary and result as JSON.
func (f *JSONFormatter) FormatEstimate(e *Estimate) (string, error) {
	if e == nil {
		return "", nil
	}
	return f.marshal(e)
}

// FormatCatalog renders the catalog as JSON.
func (f *JSONFormatter) FormatCatalog(c *Catalog) (string, error) {
	if c == nil {
		return "", nil
	}
	return f.marshal(c)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
