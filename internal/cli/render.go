package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/renderer"
	"github.com/dpshade/pocket-fill/internal/ui"
	"github.com/dpshade/pocket-fill/internal/validation"
)

func (a *app) renderCommand() *cobra.Command {
	var (
		vars   []string
		strict bool
		format string
		copyIt bool
	)
	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Resolve a prompt's placeholders without the wizard",
		Long: `Render substitutes --var values into a prompt. Placeholders without a value
fall back to their {{name|default}}. Anything still unresolved stays in the
output as written, or fails the command with --strict.`,
		Example: `  pocket-fill render 3 --var lang=Go --var code="$(cat main.go)"
  pocket-fill render 3 --var name=Ada --strict --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			values, err := validation.ParseVars(vars)
			if err != nil {
				return err
			}
			text, err := a.svc.Render(cmd.Context(), id, values, strict, format)
			if err != nil {
				return err
			}

			if copyIt {
				status, err := a.copy(text)
				if err != nil {
					a.log.Warn("copy failed", "prompt", id, "error", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), status)
					return nil
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Placeholder value as name=value (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a placeholder has neither a value nor a default")
	cmd.Flags().StringVarP(&format, "format", "f", renderer.FormatText, "Output format: text or json")
	cmd.Flags().BoolVar(&copyIt, "copy", false, "Copy the result to the clipboard instead of printing it")
	return cmd
}

func (a *app) fillCommand() *cobra.Command {
	var printText bool
	cmd := &cobra.Command{
		Use:   "fill [id]",
		Short: "Fill a prompt's placeholders one at a time and copy the result",
		Long: `Fill opens the placeholder wizard for a prompt. Without an ID it starts in
the prompt picker. The filled text is copied to the clipboard on finish, and
printed instead when the clipboard is unavailable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := 0
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
				// fail before taking over the terminal
				if _, err := a.svc.GetPrompt(cmd.Context(), id); err != nil {
					return err
				}
			}
			outcome, err := a.runTUI(cmd, id, true)
			if err != nil {
				return err
			}
			if printText && outcome != nil && outcome.Copied {
				fmt.Fprintln(cmd.OutOrStdout(), outcome.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&printText, "print", "p", false, "Also print the filled text")
	return cmd
}

// runTUI runs the bubbletea program and reports what it produced. Status
// lines go to stderr so stdout only ever carries prompt text.
func (a *app) runTUI(cmd *cobra.Command, promptID int, exitAfterFill bool) (*ui.Outcome, error) {
	model, err := ui.NewModel(cmd.Context(), a.svc, ui.Options{
		GlamourStyle:  a.cfg.UI.GlamourStyle,
		WordWrap:      a.cfg.UI.WordWrap,
		PromptID:      promptID,
		ExitAfterFill: exitAfterFill,
		Copy:          a.copy,
		Logger:        a.log,
	})
	if err != nil {
		return nil, err
	}

	final, err := a.runProgram(cmd.Context(), *model)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "Terminal UI failed")
	}

	var result ui.Model
	switch m := final.(type) {
	case ui.Model:
		result = m
	case *ui.Model:
		result = *m
	default:
		return nil, errors.InternalError(fmt.Sprintf("unexpected final model %T", final))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	outcome := result.Outcome()
	stderr := cmd.ErrOrStderr()
	switch {
	case outcome == nil:
		if exitAfterFill {
			fmt.Fprintln(stderr, "Cancelled")
		}
	case outcome.CopyErr != nil:
		fmt.Fprintf(stderr, "Warning: %v\n", outcome.CopyErr)
		fmt.Fprintln(cmd.OutOrStdout(), outcome.Text)
	default:
		fmt.Fprintf(stderr, "Copied %q to clipboard\n", outcome.Title)
	}
	return outcome, nil
}
