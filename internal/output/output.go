// Package output renders check results for the CLI.
package output

import (
	"fmt"
	"strings"

	"github.com/handlescope/handlescope/internal/core"
)

// Format identifies a supported output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Formatter renders check responses.
type Formatter interface {
	FormatCheck(response *core.HandleCheckResponse) (string, error)
	FormatBulk(response *core.BulkHandleCheckResponse) (string, error)
}

// NewFormatter returns the formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TableFormatter{}
	}
}
