package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) foldersCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "List and manage folders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printFolders(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List folders with their prompt counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printFolders(cmd, format)
		},
	}
	list.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.svc.CreateFolder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %d: %s\n", f.ID, f.Name)
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <folder> <new-name>",
		Short: "Rename a folder; its prompts move with it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := a.svc.FindFolder(ctx, args[0])
			if err != nil {
				return err
			}
			old := f.Name
			renamed, err := a.svc.RenameFolder(ctx, f.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed folder %s to %s\n", old, renamed.Name)
			return nil
		},
	}

	var force bool
	remove := &cobra.Command{
		Use:     "delete <folder>",
		Aliases: []string{"rm"},
		Short:   "Delete a folder; its prompts become uncategorized",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := a.svc.FindFolder(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			question := fmt.Sprintf("Delete folder '%s' and move its %d prompt(s) to the library root?", f.Name, f.PromptCount)
			if !force && !confirm(cmd, question) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := a.svc.DeleteFolder(ctx, f.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted folder %s\n", f.Name)
			return nil
		},
	}
	remove.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	cmd.AddCommand(list, create, rename, remove)
	return cmd
}

func (a *app) printFolders(cmd *cobra.Command, format string) error {
	folders, err := a.svc.ListFolders(cmd.Context())
	if err != nil {
		return err
	}
	return formatFolders(cmd.OutOrStdout(), folders, format)
}
