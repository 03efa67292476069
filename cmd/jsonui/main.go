package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/jsonui/internal/config"
	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/gate"
	"github.com/danielpatrickdp/jsonui/internal/launcher"
	"github.com/danielpatrickdp/jsonui/internal/persist"
	"github.com/danielpatrickdp/jsonui/internal/render"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/render/textui"
	"github.com/danielpatrickdp/jsonui/internal/server"
	"github.com/danielpatrickdp/jsonui/internal/session"
	"github.com/danielpatrickdp/jsonui/internal/store"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to YAML config")
	statePath := flag.String("state", "", "document to edit (overrides config)")
	dbPath := flag.String("db", "", "version store database (overrides config)")
	addr := flag.String("addr", "", "state service listen address (overrides config)")
	strict := flag.Bool("strict", false, "record unmatched nodes as errors")
	printOnce := flag.Bool("print", false, "draw one frame as text and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *statePath != "" {
		cfg.StatePath = *statePath
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *strict {
		cfg.Strict = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	doc, err := persist.LoadOrEmpty(cfg.StatePath, logger)
	if err != nil {
		log.Fatalf("load %s: %v", cfg.StatePath, err)
	}

	if *printOnce {
		if err := printFrame(cfg, doc, logger); err != nil {
			log.Fatalf("print: %v", err)
		}
		return
	}

	if err := run(cfg, doc, logger); err != nil {
		log.Fatalf("jsonui: %v", err)
	}
}

// #endregion main

// #region run
func run(cfg config.Config, doc any, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := headless.New()
	dctx, err := newContext(cfg, ui, logger)
	if err != nil {
		return err
	}

	opts := session.Options{
		RootKey: cfg.RootKey,
		Sink:    persist.FileSink{Path: cfg.StatePath},
		Gate:    gate.NewGate(cfg.GateConfig()),
		Logger:  logger,
	}

	if cfg.DBPath != "" {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		resumed, versionID, err := st.Resume(doc)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if versionID != "" {
			logger.Info("resuming active version", "version", versionID)
			doc = resumed
		}
		opts.Store = st
	}

	var launch *launcher.Launcher
	if len(cfg.Actions) > 0 {
		results, err := actionResults(cfg)
		if err != nil {
			return err
		}
		launch = launcher.New(cfg.Actions, launcher.Options{Logger: logger, Results: results})
		for _, a := range cfg.Actions {
			if last, err := launch.Last(a.Name); err == nil {
				logger.Info("previous run", "action", a.Name, "status", last.String(), "at", last.At)
			}
		}
		opts.Launcher = launch
	}

	sess := session.New(doc, dctx, ui, opts)
	logger.Info("editor ready",
		"state", cfg.StatePath, "db", cfg.DBPath, "addr", cfg.ListenAddr, "actions", len(cfg.Actions))

	var lis net.Listener
	if cfg.ListenAddr != "" {
		lis, err = net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx, cfg.FrameInterval)
	})
	if lis != nil {
		g.Go(func() error {
			return server.Serve(gctx, lis, server.New(sess, ui, logger))
		})
	}

	err = g.Wait()
	if launch != nil {
		for name, n := range launch.Active() {
			logger.Warn("leaving action running", "action", name, "processes", n)
		}
	}
	return err
}

// actionResults opens the cache holding the latest status of each action.
func actionResults(cfg config.Config) (*persist.Cache, error) {
	root, err := persist.NewCache(cfg.ResultsDir(), "jsonui")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	results, err := root.Sub("actions")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return results.SetExtension(".json"), nil
}

// #endregion run

// #region print
// printFrame draws doc once through the text backend.
func printFrame(cfg config.Config, doc any, logger *slog.Logger) error {
	ui := textui.New(os.Stdout)
	dctx, err := newContext(cfg, ui, logger)
	if err != nil {
		return err
	}
	sess := session.New(doc, dctx, ui, session.Options{RootKey: cfg.RootKey, Logger: logger})
	res, err := sess.RunFrame()
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		fmt.Fprintln(os.Stderr, e)
	}
	return nil
}

func newContext(cfg config.Config, ui render.Backend, logger *slog.Logger) (*dispatch.Context, error) {
	hs, err := cfg.HandlerSet()
	if err != nil {
		return nil, fmt.Errorf("handlers: %w", err)
	}
	return dispatch.NewContext(dispatch.NewRegistry(hs...), ui, dispatch.Options{
		Strict: cfg.Strict,
		Logger: logger,
	}), nil
}

// #endregion print
