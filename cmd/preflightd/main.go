package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/winstanley-industries/preflight/internal/adapter/cli"
	"github.com/winstanley-industries/preflight/internal/adapter/observability"
	"github.com/winstanley-industries/preflight/internal/app"
	"github.com/winstanley-industries/preflight/internal/config"
	"github.com/winstanley-industries/preflight/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "preflightd",
		EnvPrefix:   "PREFLIGHT",
	})
	if err != nil {
		log.Println(fmt.Errorf("config load failed: %w", err))
		return 1
	}

	logger := observability.NewStdLogger()

	repoDir, err := os.Getwd()
	if err != nil {
		log.Println(fmt.Errorf("resolve working directory: %w", err))
		return 1
	}

	a := app.New(cfg, logger, repoDir)

	root := cli.NewRootCommand(cli.Dependencies{
		Server:        a,
		Exporter:      a,
		DefaultPort:   cfg.Server.Port,
		DefaultOutput: "out",
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return 0
		}
		if errors.Is(err, cli.ErrBadArguments) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "preflight"))
	}
	return paths
}
