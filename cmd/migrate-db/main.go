// Command migrate-db copies a SQLite prompt library into a markdown tree.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-fill/internal/config"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/storage"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		dbPath   string
		outDir   string
		dryRun   bool
		logLevel string
	)
	cmd := &cobra.Command{
		Use:           "migrate-db",
		Short:         "Copy prompts and folders from a SQLite database into a markdown library",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logLevel, logging.Stderr)
			if err != nil {
				return err
			}
			defer log.Sync()

			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("database %s: %w", dbPath, err)
			}
			src, err := storage.NewSQLRepository(dbPath, log.With("side", "source"))
			if err != nil {
				return err
			}
			defer src.Close()

			if err := storage.InitLibrary(outDir); err != nil {
				return err
			}
			dst, err := storage.NewMarkdownRepository(outDir, log.With("side", "destination"))
			if err != nil {
				return err
			}
			defer dst.Close()

			stats, err := storage.Migrate(cmd.Context(), src, dst, dryRun, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "Migrated"
			if dryRun {
				verb = "Would migrate"
			}
			fmt.Fprintf(out, "%s %d prompts into %s\n", verb, stats.Prompts, outDir)
			fmt.Fprintf(out, "Folders: %d created, %d already present\n", stats.FoldersCreated, stats.FoldersReused)
			if !dryRun {
				fmt.Fprintf(out, "Point pocket-fill at it with --dir %s or %s=%s\n", outDir, config.EnvDir, outDir)
			}
			return nil
		},
	}

	home, _ := os.UserHomeDir()
	cmd.Flags().StringVar(&dbPath, "db", "prompts.db", "SQLite database to read")
	cmd.Flags().StringVar(&outDir, "out", filepath.Join(home, "prompts_tree"), "Markdown library to write into")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be copied without writing")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Set logging level (debug, info, warn, error)")
	return cmd
}
