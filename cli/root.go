// Package cli implements the library command line: librarian commands for
// the catalog, roster and rentals, and member commands for browsing and
// self-service rentals. The session persists between invocations.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"library-rentals/config"
	"library-rentals/library"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string
	DBPath     string
	Verbose    bool
	Format     string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// app is the state shared by every command of one process, including the
// commands run from the interactive shell.
type app struct {
	opts   *RootOptions
	rawIn  io.Reader
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
	mgr    *library.LibraryManager
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		opts:   &RootOptions{},
		rawIn:  in,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		logger: slog.New(slog.DiscardHandler),
	}
}

// open loads the configuration and the library unless already open.
func (a *app) open(cmd *cobra.Command) error {
	if a.mgr != nil {
		return nil
	}
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return wrapExit(ExitCommandError, "load config", err)
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = a.opts.Backend
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = a.opts.DBPath
	}
	if err := cfg.Validate(); err != nil {
		return wrapExit(ExitCommandError, "invalid config", err)
	}

	level, _ := cfg.Level()
	if a.opts.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	mgr, err := library.NewLibraryManager(cfg.Manager(), library.WithLogger(a.logger))
	if err != nil {
		return wrapExit(ExitCommandError, "open library", err)
	}
	a.logger.Debug("library opened", "backend", cfg.Backend, "db", cfg.DBPath)
	a.mgr = mgr
	return nil
}

func (a *app) close() {
	if a.mgr == nil {
		return
	}
	if err := a.mgr.Close(); err != nil {
		a.logger.Warn("close library", "error", err)
	}
	a.mgr = nil
}

// NewRootCommand creates the root command for the library CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp(os.Stdin, os.Stdout, os.Stderr))
}

func newRootCommand(a *app) *cobra.Command {
	opts := a.opts

	cmd := &cobra.Command{
		Use:           "library",
		Short:         "Library catalog, members and rentals",
		Long:          "Manage a library's book catalog, member roster and rentals, or browse and rent books as a member.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return exitErrorf(ExitCommandError, "invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return a.open(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (default $"+config.EnvConfig+")")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", library.BackendSQLite, "storage backend (sqlite|memory|postgres)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", config.DefaultDBPath, "SQLite database path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newRegisterCommand(a))
	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newLogoutCommand(a))
	cmd.AddCommand(newWhoamiCommand(a))
	cmd.AddCommand(newProfileCommand(a))
	cmd.AddCommand(newBookCommand(a))
	cmd.AddCommand(newMemberCommand(a))
	cmd.AddCommand(newRentalCommand(a))
	cmd.AddCommand(newRentCommand(a))
	cmd.AddCommand(newReturnCommand(a))
	cmd.AddCommand(newMyRentalsCommand(a))
	cmd.AddCommand(newDashboardCommand(a))
	cmd.AddCommand(newShellCommand(a))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Run executes one command line and releases the library afterwards.
func Run(args []string, in io.Reader, out, errOut io.Writer) error {
	a := newApp(in, out, errOut)
	defer a.close()
	return a.execute(args)
}

func (a *app) execute(args []string) error {
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	return cmd.Execute()
}

// Main runs the CLI with the process arguments and returns the exit code.
func Main(args []string) int {
	err := Run(args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// requireArg is a cobra.PositionalArgs that names the missing argument.
func requireArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return exitErrorf(ExitCommandError, "%s requires exactly one %s argument", cmd.CommandPath(), name)
		}
		return nil
	}
}

// userError turns the library's expected failures into plain messages.
func userError(action string, err error) error {
	switch {
	case errors.Is(err, library.ErrNotAuthenticated):
		return wrapExit(ExitFailure, action, fmt.Errorf("%w (run 'library login')", err))
	case errors.Is(err, library.ErrInvalidInput), errors.Is(err, library.ErrInvalidStatus):
		return wrapExit(ExitCommandError, action, err)
	default:
		return wrapExit(ExitFailure, action, err)
	}
}
