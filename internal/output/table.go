package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/handlescope/handlescope/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatCheck renders one handle's results as a table.
func (f *TableFormatter) FormatCheck(response *core.HandleCheckResponse) (string, error) {
	if response == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(response.Handle)
	t.AppendHeader(table.Row{"Platform", "Status", "Profile URL", "Notes"})

	available := 0
	total := 0
	for _, result := range response.Results {
		if result == nil {
			continue
		}
		t.AppendRow(table.Row{
			result.PlatformName,
			statusLabel(result),
			result.ProfileURL,
			formatNotes(result),
		})
		if result.Status == core.StatusAvailable || result.Status == core.StatusTaken {
			total++
		}
		if result.Status == core.StatusAvailable {
			available++
		}
	}

	if total > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d available", available, total), "", ""})
	}

	return t.Render(), nil
}

// FormatBulk renders a bulk result as one table, a row per (handle, platform).
func (f *TableFormatter) FormatBulk(response *core.BulkHandleCheckResponse) (string, error) {
	if response == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Handle", "Platform", "Status", "Profile URL", "Notes"})

	for _, check := range response.Results {
		if check == nil {
			continue
		}
		for _, result := range check.Results {
			if result == nil {
				continue
			}
			t.AppendRow(table.Row{
				check.Handle,
				result.PlatformName,
				statusLabel(result),
				result.ProfileURL,
				formatNotes(result),
			})
		}
	}

	return t.Render(), nil
}

func statusLabel(result *core.PlatformCheckResult) string {
	label := string(result.Status)
	if result.Cached {
		label += " (cached)"
	}
	return label
}

func formatNotes(result *core.PlatformCheckResult) string {
	var notes []string
	if result.ErrorMessage != "" {
		notes = append(notes, result.ErrorMessage)
	}
	if len(result.Suggestions) > 0 {
		notes = append(notes, "try: "+strings.Join(result.Suggestions, ", "))
	}
	if result.ResponseMs > 0 {
		notes = append(notes, fmt.Sprintf("%dms", result.ResponseMs))
	}
	return strings.Join(notes, "; ")
}
