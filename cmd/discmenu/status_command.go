package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"discmenu/internal/runstore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var outFlag string
	var runFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-menu results of a pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			outDir := strings.TrimSpace(outFlag)
			if outDir == "" {
				outDir = cfg.Paths.OutDir
			}
			outDir, err = filepath.Abs(outDir)
			if err != nil {
				return err
			}

			store, err := runstore.Open(outDir)
			if err != nil {
				return err
			}
			defer store.Close()

			runID := strings.TrimSpace(runFlag)
			if runID == "" {
				runID, err = store.LatestRunID(cmd.Context())
				if err != nil {
					return err
				}
			}
			if runID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			menus, err := store.ListByRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd.OutOrStdout(), menus)
			}

			summary, err := store.Summarize(cmd.Context(), runID)
			if err != nil {
				return err
			}

			writer := table.NewWriter()
			writer.SetOutputMirror(cmd.OutOrStdout())
			writer.AppendHeader(table.Row{"Menu", "Status", "Pages", "Rects", "Fallback", "Error"})
			for _, menu := range menus {
				writer.AppendRow(table.Row{
					menu.MenuID,
					string(menu.Status),
					menu.PageCount,
					menu.RectCount,
					menu.FallbackCount,
					menu.ErrorMessage,
				})
			}
			writer.AppendFooter(table.Row{
				fmt.Sprintf("run %s", runID), "",
				"", fmt.Sprintf("%d done", summary.Completed),
				fmt.Sprintf("%d empty", summary.NoButtons),
				fmt.Sprintf("%d failed", summary.Failed),
			})
			writer.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&outFlag, "out", "", "Output directory (defaults to paths.out_dir)")
	cmd.Flags().StringVar(&runFlag, "run", "", "Run identifier (defaults to the latest run)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print raw records as JSON")
	return cmd
}
