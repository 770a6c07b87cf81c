package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/placeholder"
)

const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatIDs   = "ids"
)

const timeLayout = "2006-01-02 15:04"

// folderNames maps folder IDs to names for display.
func (a *app) folderNames(ctx context.Context) (map[int]string, error) {
	folders, err := a.svc.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(folders))
	for _, f := range folders {
		names[f.ID] = f.Name
	}
	return names, nil
}

func folderLabel(names map[int]string, id int) string {
	if id <= 0 {
		return "-"
	}
	if name, ok := names[id]; ok {
		return name
	}
	return "#" + strconv.Itoa(id)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatOutput writes a prompt list in the requested format.
func formatOutput(w io.Writer, prompts []*models.Prompt, names map[int]string, format string) error {
	switch format {
	case formatJSON:
		if prompts == nil {
			prompts = []*models.Prompt{}
		}
		return writeJSON(w, prompts)
	case formatIDs:
		for _, p := range prompts {
			fmt.Fprintln(w, p.ID)
		}
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tFOLDER\tPLACEHOLDERS\tUPDATED")
		for _, p := range prompts {
			title := p.Title()
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
				p.ID, title, folderLabel(names, p.FolderID), placeholder.Count(p.Content), p.UpdatedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	case formatText, "":
		if len(prompts) == 0 {
			fmt.Fprintln(w, "No prompts found")
			return nil
		}
		for _, p := range prompts {
			fmt.Fprintf(w, "%d - %s\n", p.ID, p.Title())
			if p.HasFolder() {
				fmt.Fprintf(w, "  Folder: %s\n", folderLabel(names, p.FolderID))
			}
			if vars := p.Placeholders(); len(vars) > 0 {
				fmt.Fprintf(w, "  Placeholders: %s\n", strings.Join(vars, ", "))
			}
			fmt.Fprintln(w)
		}
	default:
		return unknownFormat(format, formatText, formatTable, formatJSON, formatIDs)
	}
	return nil
}

// formatSinglePrompt writes one prompt with its metadata and raw content.
func formatSinglePrompt(w io.Writer, p *models.Prompt, names map[int]string, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, p)
	case formatText, "":
		fmt.Fprintf(w, "ID: %d\n", p.ID)
		fmt.Fprintf(w, "Title: %s\n", p.Title())
		if p.HasFolder() {
			fmt.Fprintf(w, "Folder: %s\n", folderLabel(names, p.FolderID))
		}
		if vars := p.Placeholders(); len(vars) > 0 {
			fmt.Fprintf(w, "Placeholders: %s\n", strings.Join(vars, ", "))
		}
		fmt.Fprintf(w, "Created: %s\n", p.CreatedAt.Local().Format(timeLayout))
		fmt.Fprintf(w, "Updated: %s\n", p.UpdatedAt.Local().Format(timeLayout))
		fmt.Fprintf(w, "\nContent:\n%s\n", p.Content)
		return nil
	default:
		return unknownFormat(format, formatText, formatJSON)
	}
}

func formatFolders(w io.Writer, folders []*models.Folder, format string) error {
	switch format {
	case formatJSON:
		if folders == nil {
			folders = []*models.Folder{}
		}
		return writeJSON(w, folders)
	case formatText, "", formatTable:
		if len(folders) == 0 {
			fmt.Fprintln(w, "No folders")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPROMPTS")
		for _, f := range folders {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", f.ID, f.Name, f.PromptCount)
		}
		return tw.Flush()
	default:
		return unknownFormat(format, formatText, formatJSON)
	}
}

func unknownFormat(format string, allowed ...string) error {
	return errors.InvalidInputError(fmt.Sprintf("unknown format %q", format)).
		WithDetails("use " + strings.Join(allowed, ", "))
}
