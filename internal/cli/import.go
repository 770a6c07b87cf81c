package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-fill/internal/importer"
	"github.com/dpshade/pocket-fill/internal/models"
)

func (a *app) importCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import prompts written for other tools",
	}
	cmd.AddCommand(a.importClaudeCodeCommand())
	return cmd
}

func (a *app) importClaudeCodeCommand() *cobra.Command {
	var (
		user      bool
		folder    string
		dryRun    bool
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "claude-code [path]",
		Short: "Import Claude Code slash commands and agents",
		Long: `Import reads .claude/commands and .claude/agents markdown files. Without a
path it reads the working directory and ~/.claude. $ARGUMENTS, $1..$9 and
$NAME markers become {{arguments}}, {{arg1}} and {{name}} placeholders.

A prompt whose title already exists in the target folder is skipped unless
--overwrite is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := importer.Options{UserLevel: user}
			if len(args) == 1 {
				opts.Path = args[0]
			}
			result, err := importer.NewClaudeCodeImporter().Import(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range result.Errors {
				a.log.Warn("import failed", "error", e)
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", e)
			}
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No Claude Code commands or agents found")
				return nil
			}

			if dryRun {
				for _, item := range result.Items {
					fmt.Fprintf(out, "Would import %s %q from %s (%d placeholders)\n",
						item.Kind, item.Prompt.Name, item.Source, len(item.Prompt.Placeholders()))
				}
				return nil
			}

			folderID := models.NoFolder
			if folder != "" && !strings.EqualFold(folder, "none") {
				f, err := a.svc.EnsureFolder(ctx, folder)
				if err != nil {
					return err
				}
				folderID = f.ID
			}
			existing, err := a.svc.ListPrompts(ctx, folderFilterFor(folderID))
			if err != nil {
				return err
			}
			byTitle := make(map[string]*models.Prompt, len(existing))
			for _, p := range existing {
				byTitle[strings.ToLower(p.Name)] = p
			}

			var created, updated, skipped int
			for _, item := range result.Items {
				p := item.Prompt
				p.FolderID = folderID
				if prev, ok := byTitle[strings.ToLower(p.Name)]; ok {
					if !overwrite {
						skipped++
						fmt.Fprintf(out, "Skipped %q: already exists as prompt %d\n", p.Name, prev.ID)
						continue
					}
					prev.Content = p.Content
					if err := a.svc.SavePrompt(ctx, prev); err != nil {
						return err
					}
					updated++
					continue
				}
				if err := a.svc.SavePrompt(ctx, p); err != nil {
					return err
				}
				byTitle[strings.ToLower(p.Name)] = p
				created++
			}
			fmt.Fprintf(out, "Imported %d prompts (%d updated, %d skipped)\n", created, updated, skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Also read ~/.claude when a path is given")
	cmd.Flags().StringVar(&folder, "folder", "Claude Code", `Folder to import into, "none" for the library root`)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be imported without writing")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the content of prompts with the same title")
	return cmd
}

// folderFilterFor converts a prompt FolderID into the matching list filter.
func folderFilterFor(folderID int) int {
	if folderID <= 0 {
		return models.Uncategorized
	}
	return folderID
}
