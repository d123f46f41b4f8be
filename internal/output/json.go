package output

import (
	"encoding/json"

	"github.com/handlescope/handlescope/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatCheck renders one handle's results as JSON.
func (f *JSONFormatter) FormatCheck(response *core.HandleCheckResponse) (string, error) {
	return f.marshal(response)
}

// FormatBulk renders a bulk result as JSON.
func (f *JSONFormatter) FormatBulk(response *core.BulkHandleCheckResponse) (string, error) {
	return f.marshal(response)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	if value == nil {
		return "", nil
	}

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
