// Package cli wires configuration, logging, storage and the service into a
// cobra command tree. Running the binary without a command opens the TUI.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dpshade/pocket-fill/internal/clipboard"
	"github.com/dpshade/pocket-fill/internal/config"
	"github.com/dpshade/pocket-fill/internal/errors"
	"github.com/dpshade/pocket-fill/internal/logging"
	"github.com/dpshade/pocket-fill/internal/service"
	"github.com/dpshade/pocket-fill/internal/storage"
)

// app holds what every command needs once PersistentPreRunE has run.
type app struct {
	version string

	dir      string
	backend  string
	logLevel string
	logFile  string
	verbose  bool

	cfg        *config.Config
	log        *logging.Logger
	svc        *service.Service
	errHandler *errors.CLIErrorHandler

	// replaced in tests
	copy       func(text string) (string, error)
	runProgram func(ctx context.Context, m tea.Model) (tea.Model, error)
}

func newApp(version string) *app {
	return &app{
		version:    version,
		copy:       clipboard.CopyWithFallback,
		runProgram: runProgram,
		log:        logging.Nop(),
	}
}

func runProgram(ctx context.Context, m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
}

// NewRootCommand builds the full command tree.
func NewRootCommand(version string) *cobra.Command {
	return newApp(version).rootCommand()
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a := newApp(version)
	err := a.rootCommand().ExecuteContext(ctx)
	if cerr := a.cleanup(); err == nil {
		err = cerr
	}
	if err != nil {
		a.report(os.Stderr, err)
		return 1
	}
	return 0
}

// report prints err through the CLI error handler, which also logs it.
func (a *app) report(w io.Writer, err error) {
	h := a.errHandler
	if h == nil {
		h = errors.NewCLIErrorHandler(a.log, a.verbose)
	}
	// cobra's own usage errors are plain errors
	if !errors.IsAppError(err) {
		err = errors.Wrap(err, errors.ErrCodeCommandFailed, err.Error())
	}
	fmt.Fprintln(w, h.HandleError(err))
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pocket-fill",
		Short: "Fill {{placeholder}} prompt templates from the terminal",
		Long: `pocket-fill keeps a library of prompt templates and walks you through
their {{name}} and {{name|default}} placeholders one at a time.

Run without a command to browse the library in the terminal UI.`,
		Version:           a.version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runTUI(cmd, 0, false)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dir, "dir", "", "Prompt library directory (env "+config.EnvDir+", default ~/.pocket-fill)")
	flags.StringVar(&a.backend, "backend", "", "Storage backend: markdown or sqlite")
	flags.StringVar(&a.logLevel, "log-level", "", "Set logging level (debug, info, warn, error)")
	flags.StringVar(&a.logFile, "log-file", "", `Log file path, or "stderr"`)
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Show underlying causes of errors")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}

	// Remove "completions" command
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		a.initCommand(),
		a.listCommand(),
		a.searchCommand(),
		a.showCommand(),
		a.placeholdersCommand(),
		a.renderCommand(),
		a.fillCommand(),
		a.createCommand(),
		a.editCommand(),
		a.deleteCommand(),
		a.duplicateCommand(),
		a.foldersCommand(),
		a.importCommand(),
	)
	return root
}

// setup loads configuration and opens the library.
func (a *app) setup() error {
	overrides := map[string]any{}
	if a.backend != "" {
		overrides["storage.backend"] = a.backend
	}
	if a.logLevel != "" {
		overrides["log.level"] = a.logLevel
	}
	if a.logFile != "" {
		overrides["log.file"] = a.logFile
	}

	cfg, err := config.Load(config.Options{Dir: a.dir, Overrides: overrides})
	if err != nil {
		return errors.ConfigError(err)
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return errors.ConfigError(err).WithDetails("could not open log file " + cfg.Log.File)
	}
	a.log = log.With("library", cfg.Root())
	a.errHandler = errors.NewCLIErrorHandler(a.log, a.verbose)

	repo, err := storage.Open(cfg, a.log)
	if err != nil {
		return err
	}
	a.svc = service.NewService(repo, a.log)
	a.log.Debug("library opened", "backend", cfg.Storage.Backend)
	return nil
}

// cleanup closes the library. It is safe to call more than once.
func (a *app) cleanup() error {
	var err error
	if a.svc != nil {
		err = a.svc.Close()
		a.svc = nil
	}
	a.log.Sync()
	return err
}

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new prompt library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := a.cfg.Root()
			if err := storage.InitLibrary(root); err != nil {
				return errors.StorageError("initialize library", err)
			}
			written, err := config.WriteDefault(root)
			if err != nil {
				return errors.StorageError("write default config", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized pocket-fill library in %s\n", root)
			if written {
				fmt.Fprintf(out, "Wrote default %s\n", config.FileName)
			}
			return nil
		},
	}
}
