package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/handlescope/handlescope/internal/core/engine"
	"github.com/handlescope/handlescope/internal/output"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk [handles...]",
	Short: "Check several handles at once",
	Long: `Check several handles across the configured platforms.

Handles come from the arguments, from --file, or from stdin when --file is
"-". File input is one handle per line; blank lines and lines starting with
"#" are skipped.`,
	RunE: runBulk,
}

func init() {
	rootCmd.AddCommand(bulkCmd)

	bulkCmd.Flags().StringSlice("platforms", nil, "Platform keys to check (defaults to the built-in set)")
	bulkCmd.Flags().String("file", "", `File with one handle per line ("-" for stdin)`)
	bulkCmd.Flags().String("output", "table", "Output format: table, json")
}

func runBulk(cmd *cobra.Command, args []string) error {
	platforms, err := cmd.Flags().GetStringSlice("platforms")
	if err != nil {
		return err
	}
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	handles, err := collectHandles(args, file)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return errors.New("at least one handle is required")
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	st := openStore(ctx, cliLogger())
	if st != nil {
		defer st.Close() // nolint:errcheck // best-effort cleanup
	}

	orch, sink, err := buildOrchestrator(st, cliLogger())
	if err != nil {
		return err
	}

	response, err := orch.CheckBulk(ctx, engine.BulkCheckRequest{
		Handles:      handles,
		PlatformKeys: platforms,
	})
	if err != nil {
		return err
	}

	if sink != nil {
		sink.Wait()
	}

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatBulk(response)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		total := 0
		for _, check := range response.Results {
			if check != nil {
				total += len(check.Results)
			}
		}
		logThroughput(total, startedAt)
	}
	return nil
}

// collectHandles merges argument handles with file or stdin input, keeping
// input order.
func collectHandles(args []string, file string) ([]string, error) {
	handles := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			handles = append(handles, trimmed)
		}
	}

	if file == "" {
		return handles, nil
	}

	var reader io.Reader
	if file == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(file) // #nosec G304 -- path comes from the operator's own flag
		if err != nil {
			return nil, fmt.Errorf("open handles file: %w", err)
		}
		defer f.Close() // nolint:errcheck // best-effort cleanup
		reader = f
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		handles = append(handles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read handles file: %w", err)
	}

	return handles, nil
}
