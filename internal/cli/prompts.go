package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/placeholder"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, errors.InvalidInputError(fmt.Sprintf("invalid prompt ID %q", arg)).
			WithDetails("IDs are positive integers, see 'pocket-fill list --format ids'")
	}
	return id, nil
}

// folderFilter turns a --folder value into a search filter.
func (a *app) folderFilter(ctx context.Context, ref string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "", "all":
		return models.AllFolders, nil
	case "none", "uncategorized":
		return models.Uncategorized, nil
	}
	f, err := a.svc.FindFolder(ctx, ref)
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

// folderAssignment turns a --folder value into a prompt's FolderID.
func (a *app) folderAssignment(ctx context.Context, ref string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "", "none":
		return models.NoFolder, nil
	}
	f, err := a.svc.FindFolder(ctx, ref)
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

// readContent returns the body from --file when set, "-" meaning stdin.
func readContent(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "Could not read prompt content").
			WithContext("file", path)
	}
	return string(data), nil
}

func (a *app) listCommand() *cobra.Command {
	var folder, format string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List prompts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printSearch(cmd, "", folder, format)
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", `Filter by folder name or ID ("none" for uncategorized)`)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, table, json or ids")
	return cmd
}

func (a *app) searchCommand() *cobra.Command {
	var folder, format string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search prompt titles and content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printSearch(cmd, strings.Join(args, " "), folder, format)
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", `Filter by folder name or ID ("none" for uncategorized)`)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, table, json or ids")
	return cmd
}

func (a *app) printSearch(cmd *cobra.Command, query, folder, format string) error {
	ctx := cmd.Context()
	filter, err := a.folderFilter(ctx, folder)
	if err != nil {
		return err
	}
	prompts, err := a.svc.SearchPrompts(ctx, query, filter)
	if err != nil {
		return err
	}
	names, err := a.folderNames(ctx)
	if err != nil {
		return err
	}
	return formatOutput(cmd.OutOrStdout(), prompts, names, format)
}

func (a *app) showCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.GetPrompt(cmd.Context(), id)
			if err != nil {
				return err
			}
			names, err := a.folderNames(cmd.Context())
			if err != nil {
				return err
			}
			return formatSinglePrompt(cmd.OutOrStdout(), p, names, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")
	return cmd
}

type placeholderInfo struct {
	Name       string `json:"name"`
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"hasDefault"`
}

func (a *app) placeholdersCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "placeholders <id>",
		Short: "List the placeholders of a prompt in order of first appearance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.GetPrompt(cmd.Context(), id)
			if err != nil {
				return err
			}

			infos := []placeholderInfo{}
			for _, name := range p.Placeholders() {
				def, ok := placeholder.DefaultFor(p.Content, name)
				infos = append(infos, placeholderInfo{Name: name, Default: def, HasDefault: ok})
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(out, infos)
			case formatText, "":
				if len(infos) == 0 {
					fmt.Fprintln(out, "No placeholders")
				}
				for _, info := range infos {
					if info.HasDefault {
						fmt.Fprintf(out, "%s (default: %s)\n", info.Name, info.Default)
					} else {
						fmt.Fprintln(out, info.Name)
					}
				}
				return nil
			default:
				return unknownFormat(format, formatText, formatJSON)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")
	return cmd
}

func (a *app) createCommand() *cobra.Command {
	var title, folder, content, file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a prompt",
		Example: `  pocket-fill create --title "Code review" --content "Review this {{lang|Go}} code: {{code}}"
  pocket-fill create --title "Email" --folder Work --file email.md
  pbpaste | pocket-fill create --title "Clipboard" --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if file != "" {
				body, err := readContent(cmd, file)
				if err != nil {
					return err
				}
				content = body
			}
			folderID, err := a.folderAssignment(ctx, folder)
			if err != nil {
				return err
			}

			p := &models.Prompt{Name: title, Content: content, FolderID: folderID}
			if err := a.svc.SavePrompt(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created prompt %d: %s\n", p.ID, p.Title())
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Prompt title")
	cmd.Flags().StringVar(&folder, "folder", "", "Folder name or ID")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Prompt content")
	cmd.Flags().StringVar(&file, "file", "", `Read content from a file, "-" for stdin`)
	_ = cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var title, folder, content, file string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a prompt's title, folder or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.GetPrompt(ctx, id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("folder") && !flags.Changed("content") && !flags.Changed("file") {
				return errors.InvalidInputError("nothing to change").
					WithDetails("pass --title, --folder, --content or --file")
			}
			if flags.Changed("title") {
				p.Name = title
			}
			if flags.Changed("folder") {
				if p.FolderID, err = a.folderAssignment(ctx, folder); err != nil {
					return err
				}
			}
			if flags.Changed("content") {
				p.Content = content
			}
			if file != "" {
				if p.Content, err = readContent(cmd, file); err != nil {
					return err
				}
			}

			if err := a.svc.SavePrompt(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated prompt %d: %s\n", p.ID, p.Title())
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVar(&folder, "folder", "", `Move to this folder, "none" for the library root`)
	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	cmd.Flags().StringVar(&file, "file", "", `Read new content from a file, "-" for stdin`)
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a prompt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.GetPrompt(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !force && !confirm(cmd, fmt.Sprintf("Are you sure you want to delete prompt '%s'?", p.Title())) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := a.svc.DeletePrompt(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted prompt %d: %s\n", p.ID, p.Title())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

// confirm asks a y/N question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (y/N): ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (a *app) duplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "duplicate <id>",
		Aliases: []string{"dup"},
		Short:   "Copy a prompt into the same folder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			dup, err := a.svc.DuplicatePrompt(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created prompt %d: %s\n", dup.ID, dup.Title())
			return nil
		},
	}
}
