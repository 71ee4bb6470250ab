package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"discmenu/internal/artifacts"
	"discmenu/internal/fileutil"
	"discmenu/internal/logging"
	"discmenu/internal/pipeline"
	"discmenu/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outFlag string
	var stageFlag string
	var forceFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "run <menus.json>",
		Short: "Run the menu-image pipeline over a disc's menu map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
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
			cfg.Paths.OutDir = outDir
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			if err := preflight.Check(cfg); err != nil {
				return err
			}

			// Validate the input artifact before anything runs, then stage
			// it into the output directory where the pipeline expects it.
			menuMap := &artifacts.MenuMap{}
			if err := artifacts.Read(args[0], menuMap); err != nil {
				return err
			}
			target := filepath.Join(outDir, "menus.json")
			if sourceAbs, absErr := filepath.Abs(args[0]); absErr != nil || sourceAbs != target {
				if err := fileutil.CopyFile(args[0], target); err != nil {
					return fmt.Errorf("stage menus.json into %s: %w", outDir, err)
				}
			}

			runner, err := pipeline.NewRunner(cfg, outDir, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			manifest, err := runner.Run(cmd.Context(), pipeline.Options{
				Stage: strings.TrimSpace(stageFlag),
				Force: forceFlag,
			})
			if err != nil {
				return err
			}

			logger.Info("pipeline finished",
				logging.String(logging.FieldRunID, runner.RunID()))
			if manifest != nil {
				if jsonFlag {
					return printJSON(cmd.OutOrStdout(), manifest)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d entries across %d menus\n",
					manifest.RunID, manifest.EntryCount, manifest.MenuCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outFlag, "out", "", "Output directory (defaults to paths.out_dir)")
	cmd.Flags().StringVar(&stageFlag, "stage", "", "Run a single stage instead of the whole pipeline")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Re-run stages whose artifacts already exist")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the final manifest as JSON")
	return cmd
}

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List pipeline stages in execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, stage := range pipeline.StageOrder {
				fmt.Fprintln(cmd.OutOrStdout(), stage)
			}
			return nil
		},
	}
}
