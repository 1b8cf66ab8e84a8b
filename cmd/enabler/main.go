package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/api"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/bridge"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/browser"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdp"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/cdpcontrol"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/config"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/controller"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/detect"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/icon"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/inject"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/lifecycle"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/mcpserver"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/netutil"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/notify"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/relay"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/router"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/settings"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/storage"
	"github.com/dgnsrekt/vue_devtools_enabler/internal/tabstate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load enabler config", "error", err)
		os.Exit(1)
	}

	// stdout belongs to the MCP transport in stdio mode.
	console := io.Writer(os.Stdout)
	if cfg.MCPMode == config.MCPStdio {
		console = os.Stderr
	}
	if err := setupLogger(cfg.LogLevel, cfg.LogFile, console); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("enabler config loaded",
		"cdp_url", cfg.CDPURL(),
		"bind_addr", cfg.BindAddr,
		"eval_timeout_ms", cfg.EvalTimeoutMS,
		"detect_fencing", cfg.DetectFencing,
		"detect_concurrency", cfg.DetectConcurrency,
		"selectors_file", cfg.SelectorsFile,
		"journal_dir", cfg.JournalDir,
		"ntfy", cfg.NtfyEndpoint != "",
		"mcp", cfg.MCPMode,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	if err := run(cfg); err != nil {
		slog.Error("enabler stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			StartURL:   cfg.StartURL,
			ProfileDir: cfg.ProfileDir,
		})
		if err := launcher.Launch(ctx); err != nil {
			return err
		}
		if launcher.Running() {
			defer launcher.Stop()
		}
	}

	client := cdpcontrol.NewClient(cfg.CDPURL(), cfg.EvalTimeout(), bridge.Config())
	if err := client.Connect(ctx); err != nil {
		slog.Error("failed to connect CDP client", "cdp_url", cfg.CDPURL(), "error", err)
		return err
	}
	defer func() { _ = client.Close() }()

	store := tabstate.New(cfg.DetectFencing)
	broker := relay.NewBroker()
	events := relay.NewRelay(broker)
	icons := icon.NewApplier(events)

	selectors, err := settings.NewSelectors(cfg.SelectorsFile, client)
	if err != nil {
		return err
	}

	detectObservers := []detect.Observer{events}
	activationObservers := []inject.Observer{events}
	if cfg.JournalDir != "" {
		journal := storage.NewJournal(cfg.JournalDir, uuid.NewString(), cfg.JournalMaxSizeMB, client)
		defer func() {
			if err := journal.Close(); err != nil {
				slog.Warn("journal close failed", "error", err)
			}
		}()
		detectObservers = append(detectObservers, journal)
		activationObservers = append(activationObservers, journal)
	}
	if cfg.NtfyEndpoint != "" {
		notifier := notify.NewNotifier(&http.Client{Timeout: 10 * time.Second}, cfg.NtfyEndpoint)
		defer notifier.Wait()
		activationObservers = append(activationObservers, notifier)
	}

	executor := detect.NewExecutor(client, store, icons, detectObservers...)
	br := bridge.New(client)
	dispatcher := inject.NewDispatcher(client, br, selectors, activationObservers...)
	rt := router.New(store, executor, dispatcher, br)
	defer rt.Wait()
	listener := lifecycle.New(client, store, executor, icons, rt)
	rt.SetVisibilityHandler(listener)

	navigator := cdp.NewNavigator(cfg.CDPURL())
	if err := navigator.Connect(ctx); err != nil {
		slog.Warn("navigator unavailable, open and activate are disabled", "error", err)
	}
	defer func() { _ = navigator.Close() }()

	svc := controller.NewService(controller.Deps{
		Tabs:        client,
		Store:       store,
		Router:      rt,
		Detector:    executor,
		Inspector:   br,
		Rejecter:    dispatcher,
		Navigator:   navigator,
		Activations: listener,
		Selectors:   selectors,
		Concurrency: cfg.DetectConcurrency,
	})

	mcpSrv := mcpserver.NewServer(svc)
	opts := api.Options{
		Events: relay.SSEHandler(broker, relay.DefaultHeartbeat),
		Health: func() api.HealthStats {
			entries := store.List()
			detected := 0
			for _, e := range entries {
				if e.Result.Detected() {
					detected++
				}
			}
			return api.HealthStats{
				TrackedTabs:   len(entries),
				DetectedTabs:  detected,
				EventClients:  broker.ClientCount(),
				EventsDropped: broker.Dropped(),
			}
		},
	}
	if cfg.MCPMode == config.MCPHTTP {
		opts.MCP = mcpserver.HTTPHandler(mcpSrv)
	}

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		return err
	}
	srv := &http.Server{Handler: api.NewServer(svc, opts)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.Run(gctx, client.Events())
	})
	g.Go(func() error {
		return selectors.Watch(gctx)
	})
	g.Go(func() error {
		addr := ln.Addr().String()
		slog.Info("enabler listening", "addr", addr, "docs", "http://"+addr+"/docs")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("enabler shutdown failed", "error", err)
		}
		return nil
	})
	if cfg.MCPMode == config.MCPStdio {
		g.Go(func() error {
			err := mcpserver.RunStdio(gctx, mcpSrv)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	slog.Info("enabler stopped")
	return err
}

func setupLogger(level, filename string, console io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(console, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
