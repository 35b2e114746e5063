// Package app wires the review engine core's collaborators into the two
// capabilities the CLI exposes: a long-running server process and a
// one-shot export, mirroring how the teacher's main.go builds one
// orchestrator per command rather than a single god object.
package app

import (
	"context"
	"fmt"
	"time"

	jsonout "github.com/winstanley-industries/preflight/internal/adapter/output/json"
	markdownout "github.com/winstanley-industries/preflight/internal/adapter/output/markdown"
	"github.com/winstanley-industries/preflight/internal/adapter/observability"
	"github.com/winstanley-industries/preflight/internal/adapter/output"
	"github.com/winstanley-industries/preflight/internal/adapter/reposnapshot"
	"github.com/winstanley-industries/preflight/internal/config"
	"github.com/winstanley-industries/preflight/internal/contentstore"
	"github.com/winstanley-industries/preflight/internal/diffengine"
	"github.com/winstanley-industries/preflight/internal/eventbus"
	"github.com/winstanley-industries/preflight/internal/persistence"
	"github.com/winstanley-industries/preflight/internal/revisionbuilder"
	"github.com/winstanley-industries/preflight/internal/store"
)

// App holds the configuration needed to open a fresh copy of the review
// graph for either command; it opens its own persistence.Manager and
// store.Store per invocation rather than sharing one across commands,
// since `serve` and `export` are separate process lifetimes against the
// same on-disk snapshot file.
type App struct {
	cfg     config.Config
	logger  observability.Logger
	repoDir string
	limits  diffengine.Limits

	jsonWriter *jsonout.Writer
	mdWriter   *markdownout.Writer
}

// New builds an App. repoDir is the working tree RevisionBuilder snapshots
// against.
func New(cfg config.Config, logger observability.Logger, repoDir string) *App {
	if logger == nil {
		logger = observability.NewStdLogger()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		repoDir: repoDir,
		limits:  diffengine.Limits{MaxLines: cfg.DiffEngine.MaxLines, MaxBytes: cfg.DiffEngine.MaxBytes},
		jsonWriter: jsonout.NewWriter(func() string {
			return time.Now().UTC().Format("20060102T150405Z")
		}),
		mdWriter: markdownout.NewWriter(func() string {
			return time.Now().UTC().Format("20060102T150405Z")
		}),
	}
}

type opened struct {
	mgr     *persistence.Manager
	bus     *eventbus.Bus
	st      *store.Store
	content *contentstore.Store
}

func (a *App) open(fresh bool) (*opened, error) {
	mgr, snap, content, err := persistence.Open(a.cfg.Persistence.Path, fresh, a.logger, a.cfg.Persistence.FlushInterval)
	if err != nil {
		return nil, fmt.Errorf("open persisted snapshot: %w", err)
	}

	bus := eventbus.New(a.cfg.EventBus.QueueDepth)
	snapshotter := reposnapshot.NewGitSnapshotter(a.repoDir)
	builder := revisionbuilder.New(snapshotter, content, nil)
	st := store.New(builder, content, content, bus, nil)
	st.Restore(snap)

	return &opened{mgr: mgr, bus: bus, st: st, content: content}, nil
}

// Serve implements cli.Server: it holds the store open, flushing it to
// disk on a dirty-flag schedule driven by every event the store publishes,
// until ctx is cancelled, then forces one final flush before returning.
// Port is accepted for parity with the documented CLI surface; the
// review engine core defines no network transport (see DESIGN.md,
// "Transport / MCP bridge"), so it is otherwise unused here.
func (a *App) Serve(ctx context.Context, port int, fresh bool) error {
	o, err := a.open(fresh)
	if err != nil {
		return err
	}
	defer o.mgr.Close()

	sub := o.bus.Subscribe(eventbus.Filter{})
	defer sub.Close()

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		for {
			_, result := sub.Wait(ctx, eventbus.Filter{}, eventbus.MaxTimeout)
			switch result {
			case eventbus.WaitCancelled:
				return
			case eventbus.WaitDelivered:
				o.mgr.MarkDirty()
			}
		}
	}()

	a.logger.LogInfo("preflightd serving", map[string]any{"port": port, "fresh": fresh})
	o.mgr.Run(ctx, o.st)
	<-watcherDone

	if err := o.mgr.Flush(o.st); err != nil {
		a.logger.LogError("final flush failed", map[string]any{"error": err.Error()})
		return err
	}
	a.logger.LogInfo("preflightd stopped", nil)
	return nil
}

// Export implements cli.Exporter: it opens the persisted store (never
// fresh, since export must see what serve last wrote), renders reviewID's
// latest revision and threads in the requested format, and never flushes
// the store back to disk.
func (a *App) Export(ctx context.Context, reviewID, format, outputDir string) (string, error) {
	o, err := a.open(false)
	if err != nil {
		return "", err
	}
	defer o.mgr.Close()

	engine := diffengine.NewEngine(o.content, o.st, a.limits)
	view, err := output.Assemble(ctx, o.st, engine, reviewID, nil)
	if err != nil {
		return "", err
	}

	switch format {
	case "markdown":
		return a.mdWriter.Write(ctx, outputDir, view)
	default:
		return a.jsonWriter.Write(ctx, outputDir, view)
	}
}
