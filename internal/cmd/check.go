package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/handlescope/handlescope/internal/core/engine"
	"github.com/handlescope/handlescope/internal/output"
)

var checkCmd = &cobra.Command{
	Use:   "check <handle>",
	Short: "Check handle availability",
	Long:  "Check if a handle is available across the configured platforms",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringSlice("platforms", nil, "Platform keys to check (defaults to the built-in set)")
	checkCmd.Flags().String("output", "table", "Output format: table, json")
}

func runCheck(cmd *cobra.Command, args []string) error {
	platforms, err := cmd.Flags().GetStringSlice("platforms")
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

	response, err := orch.CheckHandle(ctx, engine.CheckRequest{
		Handle:       args[0],
		PlatformKeys: platforms,
	})
	if err != nil {
		return err
	}

	if sink != nil {
		sink.Wait()
	}

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatCheck(response)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(len(response.Results), startedAt)
	}
	return nil
}

func logThroughput(count int, startedAt time.Time) {
	if count <= 0 {
		return
	}
	elapsed := time.Since(startedAt)
	if elapsed <= 0 {
		return
	}
	rate := float64(count) / elapsed.Seconds()
	cliLogger().Info(
		"Check throughput",
		zap.Int("checks", count),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rate_per_sec", rate),
	)
}
