// Command lightyd runs the file-distribution server: it loads the
// configuration document, performs the initial scan, starts the rescan
// orchestrator and config watcher, and serves the HTTP resolver contract
// until signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Lighty-Launcher/LightyUpdater/cachemgr"
	"github.com/Lighty-Launcher/LightyUpdater/configwatch"
	"github.com/Lighty-Launcher/LightyUpdater/events"
	"github.com/Lighty-Launcher/LightyUpdater/server"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration document")
	devLog := flag.Bool("dev", false, "use a development (console, debug-level) logger instead of the production JSON logger")
	flag.Parse()

	logger, err := buildLogger(*devLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lightyd: failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	sugar := logger.Sugar()

	if err := run(*configPath, sugar); err != nil {
		sugar.Fatalw("lightyd exited with error", "error", err)
	}
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(configPath string, logger *zap.SugaredLogger) error {
	cfg, err := configwatch.Load(configPath)
	if err != nil {
		return fmt.Errorf("lightyd: loading config %q: %w", configPath, err)
	}

	bus := events.New()
	bus.Subscribe(func(ev events.Event) {
		logger.Infow("event", "kind", ev.Kind, "namespace", ev.Namespace, "message", ev.Message)
	})

	mgr, err := cachemgr.New(cfg, bus, logger)
	if err != nil {
		return fmt.Errorf("lightyd: constructing cache manager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Initialize(ctx); err != nil {
		return fmt.Errorf("lightyd: initial scan: %w", err)
	}
	mgr.StartAutoRescan(ctx)

	var watcher *configwatch.Watcher
	if cfg.HotReload.Config.Enabled {
		watcher = configwatch.NewWatcher(configPath, cfg.HotReload.Config.DebounceMs, cfg.Cache.ConfigReloadChanSize, mgr, bus, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warnw("config watcher exited with error", "error", err)
			}
		}()
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := server.New(addr, mgr, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("lightyd listening", "addr", addr)
		serveErr <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infow("lightyd received shutdown signal", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			logger.Warnw("http server exited with error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http server shutdown error", "error", err)
	}

	if watcher != nil {
		watcher.Stop()
	}
	cancel()
	mgr.Shutdown()

	return nil
}
