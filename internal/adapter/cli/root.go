// Package cli builds preflightd's command tree, adapted from the teacher's
// adapter/cli root command: a thin Cobra shell around collaborators the
// entry point wires up, with no business logic of its own.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrBadArguments marks a command-line usage error, mapped to the daemon's
// exit code 2 (spec §6: 0 clean, 2 bad arguments, 1 unexpected failure).
var ErrBadArguments = errors.New("bad arguments")

// Server runs the daemon's long-lived process: opening the persisted
// snapshot, serving whatever transport is wired in, and blocking until ctx
// is cancelled or an unrecoverable error occurs.
type Server interface {
	Serve(ctx context.Context, port int, fresh bool) error
}

// Exporter renders a review's latest diff and threads to disk, backing the
// supplemental `export` command.
type Exporter interface {
	Export(ctx context.Context, reviewID, format, outputDir string) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Server        Server
	Exporter      Exporter
	Args          Arguments
	DefaultPort   int
	DefaultOutput string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "preflightd",
		Short: "local code review server for human and agent collaboration",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	defaultPort := deps.DefaultPort
	if defaultPort == 0 {
		defaultPort = 4173
	}

	root.AddCommand(serveCommand(deps.Server, defaultPort))
	root.AddCommand(mcpCommand(defaultPort + 1))
	root.AddCommand(exportCommand(deps.Exporter, deps.DefaultOutput))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "show version and exit")
	versionHandler := func(cmd *cobra.Command, _ []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func serveCommand(srv Server, defaultPort int) *cobra.Command {
	var port int
	var fresh bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the review server and keep it running",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: serve takes no positional arguments", ErrBadArguments)
			}
			if port < 1 || port > 65535 {
				return fmt.Errorf("%w: --port must be between 1 and 65535, got %d", ErrBadArguments, port)
			}

			out := cmd.OutOrStdout()
			if IsInteractive(out) {
				fmt.Fprintf(out, "preflightd listening on port %d\n", port)
				if fresh {
					fmt.Fprintln(out, "starting with an empty store (--fresh)")
				}
			} else {
				fmt.Fprintf(out, "preflightd ready port=%d fresh=%t\n", port, fresh)
			}

			return srv.Serve(cmd.Context(), port, fresh)
		},
	}
	cmd.Flags().IntVar(&port, "port", defaultPort, "port to listen on")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "discard any persisted snapshot before starting")
	return cmd
}

// mcpCommand is a placeholder for the out-of-process agent-protocol bridge
// (SPEC_FULL.md §10, non-goal of the review engine core). It exists so the
// command surface matches the daemon's documented CLI, but refuses to run.
func mcpCommand(defaultPort int) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "start the agent-protocol bridge (not implemented by this binary)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: mcp takes no positional arguments", ErrBadArguments)
			}
			return fmt.Errorf("mcp bridge is a separate process; this binary only runs the review engine core")
		},
	}
	cmd.Flags().IntVar(&port, "port", defaultPort, "port to listen on")
	return cmd
}

func exportCommand(exporter Exporter, defaultOutput string) *cobra.Command {
	var format string
	var outputDir string

	if defaultOutput == "" {
		defaultOutput = "."
	}

	cmd := &cobra.Command{
		Use:   "export <review-id>",
		Short: "render a review's latest diff and threads to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: export requires exactly one review id argument", ErrBadArguments)
			}
			if format != "json" && format != "markdown" {
				return fmt.Errorf("%w: --format must be json or markdown, got %q", ErrBadArguments, format)
			}

			path, err := exporter.Export(cmd.Context(), args[0], format, outputDir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format: json or markdown")
	cmd.Flags().StringVar(&outputDir, "output", defaultOutput, "directory to write the export to")
	return cmd
}
