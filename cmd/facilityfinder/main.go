package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vango-dev/facilityfinder/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		errors.DisableColors()
	}
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configDir string
	errors    string
}

// execute runs the command line in args and reports any error on stderr
// in the format chosen by --errors. It returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	mode, perr := errors.ParseMode(opts.errors)
	if perr != nil {
		mode = errors.ModePretty
	}
	errors.Fprint(stderr, errors.FromError(err, errors.CodeBadArgument), mode)
	return 1
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "facilityfinder",
		Short: "Find community facilities and events",
		Long: `facilityfinder serves the facility and event finder.

Pages are rendered on the server for every path and then kept live over a
WebSocket connection, so navigating between views never reloads the page.

Configuration comes from finder.json (see "facilityfinder init") and the
FINDER_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := errors.ParseMode(opts.errors)
			return err
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configDir, "config", "c", "", "Directory containing finder.json (default: search from the working directory)")
	flags.StringVar(&opts.errors, "errors", string(errors.ModePretty), "Error output format: pretty, compact or json")

	rootCmd.AddCommand(
		serveCmd(&opts.configDir),
		routesCmd(&opts.configDir),
		resolveCmd(&opts.configDir),
		urlCmd(&opts.configDir),
		explainCmd(),
		initCmd(),
		versionCmd(&opts.configDir),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", colorize("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", colorize("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

func colorize(code, s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return code + s + "\033[0m"
}
