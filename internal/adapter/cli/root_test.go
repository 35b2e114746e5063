package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/winstanley-industries/preflight/internal/adapter/cli"
)

type serverStub struct {
	port  int
	fresh bool
	err   error
}

func (s *serverStub) Serve(ctx context.Context, port int, fresh bool) error {
	s.port = port
	s.fresh = fresh
	return s.err
}

type exporterStub struct {
	reviewID  string
	format    string
	outputDir string
	path      string
	err       error
}

func (e *exporterStub) Export(ctx context.Context, reviewID, format, outputDir string) (string, error) {
	e.reviewID, e.format, e.outputDir = reviewID, format, outputDir
	if e.err != nil {
		return "", e.err
	}
	return e.path, nil
}

func TestServeCommandPassesPortAndFresh(t *testing.T) {
	srv := &serverStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Server: srv,
		Args:   cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"serve", "--port", "9090", "--fresh"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if srv.port != 9090 {
		t.Fatalf("expected port 9090, got %d", srv.port)
	}
	if !srv.fresh {
		t.Fatalf("expected fresh to be true")
	}
}

func TestServeCommandRejectsBadPort(t *testing.T) {
	srv := &serverStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Server: srv,
		Args:   cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"serve", "--port", "0"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrBadArguments) {
		t.Fatalf("expected ErrBadArguments, got %v", err)
	}
}

func TestExportCommandInvokesExporter(t *testing.T) {
	exp := &exporterStub{path: "out/review-1.json"}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Exporter: exp,
		Args:     cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"export", "review-1", "--format", "json", "--output", "out"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if exp.reviewID != "review-1" || exp.format != "json" || exp.outputDir != "out" {
		t.Fatalf("unexpected export call: %+v", exp)
	}
	if strings.TrimSpace(buf.String()) != "out/review-1.json" {
		t.Fatalf("unexpected export output: %q", buf.String())
	}
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	exp := &exporterStub{}
	root := cli.NewRootCommand(cli.Dependencies{
		Exporter: exp,
		Args:     cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"export", "review-1", "--format", "yaml"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrBadArguments) {
		t.Fatalf("expected ErrBadArguments, got %v", err)
	}
}

func TestMCPCommandRefusesToRun(t *testing.T) {
	root := cli.NewRootCommand(cli.Dependencies{
		Args: cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"mcp"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected mcp command to refuse to run")
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
