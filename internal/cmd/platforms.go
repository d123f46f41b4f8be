package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/catalog"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List known platforms",
	Long:  "List the built-in platform catalog merged with any platforms stored in the database",
	RunE:  runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	byKey := make(map[string]core.ResolvedPlatform)
	for _, def := range catalog.Defaults() {
		byKey[def.Key] = core.ResolvedPlatform{PlatformDefinition: def}
	}

	if st := openStore(ctx, cliLogger()); st != nil {
		defer st.Close() // nolint:errcheck // best-effort cleanup
		stored, err := st.AllPlatforms(ctx)
		if err != nil {
			return err
		}
		for _, platform := range stored {
			byKey[platform.Key] = platform
		}
	}

	platforms := make([]core.ResolvedPlatform, 0, len(byKey))
	for _, platform := range byKey {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool {
		if platforms[i].SortOrder != platforms[j].SortOrder {
			return platforms[i].SortOrder < platforms[j].SortOrder
		}
		return platforms[i].Key < platforms[j].Key
	})

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Key", "Name", "Profile URL Template", "Handle Rules"})
	for _, platform := range platforms {
		t.AppendRow(table.Row{
			platform.Key,
			platform.Name,
			platform.ProfileURLTemplate,
			platform.HandleRegex,
		})
	}

	fmt.Println(t.Render())
	return nil
}
