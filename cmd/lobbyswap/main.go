package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"lobbyswap/internal/config"
	"lobbyswap/internal/detect"
	"lobbyswap/internal/httpapi"
	"lobbyswap/internal/inject"
	"lobbyswap/internal/lcu"
	"lobbyswap/internal/namedb"
	"lobbyswap/internal/obs"
	"lobbyswap/internal/platform"
	"lobbyswap/internal/resolve"
	"lobbyswap/internal/session"
	"lobbyswap/internal/ticker"
	"lobbyswap/internal/tracker"
)

func main() {
	cfgPath := flag.String("config", "lobbyswap.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := obs.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("companion failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	creds, err := waitForClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	client := lcu.NewClient(creds, time.Duration(cfg.APITimeout), log.Named("lcu"), metrics)

	store := namedb.NewStore(cfg.CacheDir, log.Named("namedb"))
	resolver := resolve.NewResolver(store, cfg.MinSimilarity, log.Named("resolve"), metrics)
	if cfg.DefaultLocale != "" {
		resolver.SetLocale(cfg.DefaultLocale)
	}

	state := session.New()
	echo := &detect.EchoSuppressor{}

	hist, err := inject.OpenHistory(cfg.HistoryPath)
	if err != nil {
		log.Warn("injection history disabled", zap.Error(err))
		hist = nil
	} else {
		defer hist.Close()
	}

	applier := &inject.ToolApplier{
		Path: cfg.SwapToolPath,
		Dir:  cfg.SwapToolDir,
		Log:  log.Named("swaptool"),
	}
	coord := inject.NewCoordinator(state, client, applier, platform.Finder{},
		store.English(), hist, inject.DesktopNotify,
		inject.Config{
			LockWait:    time.Duration(cfg.InjectionLockWait),
			Cooldown:    time.Duration(cfg.InjectionCooldown),
			Safety:      time.Duration(cfg.SuspendTimeout),
			ProcessName: cfg.GameProcessName,
		}, log.Named("inject"), metrics)

	sched := ticker.NewScheduler(state, tracker.Timer{CP: client},
		func(snap session.Snapshot) { coord.Inject(ctx, snap) },
		cfg.TickerHz, cfg.TriggerThresholdMS, time.Duration(cfg.TickerResyncEvery),
		log.Named("ticker"), metrics)

	trk := tracker.New(client, state, sched,
		time.Duration(cfg.PhasePollInterval), time.Duration(cfg.ChampPollInterval),
		log.Named("tracker"), metrics)
	trk.Warm = resolver.Warm
	trk.OnLocale = resolver.SetLocale
	go trk.Run(ctx)

	// The websocket feed nudges the tracker so lock and phase changes land
	// faster than the poll interval.
	feed := lcu.NewFeed(creds, log.Named("feed"))
	go feed.Run(ctx)

	// A client restart rewrites the lockfile with a new port and password;
	// re-point the client and feed instead of polling a dead port forever.
	go lcu.WatchLockfile(ctx, cfg.LockfilePath, 2*time.Second, creds,
		func(fresh lcu.Credentials) {
			client.SetCredentials(fresh)
			feed.SetCredentials(fresh)
		}, log.Named("lockfile"))
	events := make(chan lcu.Event, 64)
	feed.Inbox() <- lcu.Subscribe{ID: "tracker", Prefix: "/lol-", Outbox: events}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-events:
				trk.Notify()
			}
		}
	}()

	if backend := buildBackend(ctx, cfg, log, metrics); backend != nil {
		det := detect.New(state, backend, resolver, echo,
			detect.GateConfig{
				SettleDelay:        time.Duration(cfg.SettleDelay),
				TriggerThresholdMS: cfg.TriggerThresholdMS,
			}, log.Named("detect"), metrics)
		det.Focused = func() bool { return platform.WindowFocused(cfg.WindowName) }
		go det.Run(ctx)
	}

	var srv *http.Server
	if cfg.StatusAddr != "" {
		srv = &http.Server{
			Addr:    cfg.StatusAddr,
			Handler: httpapi.SetupRoutes(state, echo, reg, log.Named("httpapi")),
		}
		go func() {
			log.Info("status server listening", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("status server failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	state.Stop()
	if srv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}
	log.Info("shut down")
	return nil
}

// waitForClient blocks until the client lockfile can be read; the
// companion is routinely started before the game client.
func waitForClient(ctx context.Context, cfg config.Config, log *zap.Logger) (lcu.Credentials, error) {
	for {
		if path, err := lcu.FindLockfile(cfg.LockfilePath); err == nil {
			creds, perr := lcu.ParseLockfile(path)
			if perr == nil {
				log.Info("client found", zap.Int("port", creds.Port))
				return creds, nil
			}
			log.Debug("lockfile unreadable", zap.Error(perr))
		}
		log.Info("waiting for client lockfile")
		select {
		case <-ctx.Done():
			return lcu.Credentials{}, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// buildBackend picks the on-screen text source. "auto" probes the
// accessibility tree once and falls back to the pixel pipeline.
func buildBackend(ctx context.Context, cfg config.Config, log *zap.Logger, m *obs.Metrics) detect.Backend {
	pixelCfg := detect.PixelConfig{
		DiffThreshold:  cfg.DiffThreshold,
		BurstWindow:    time.Duration(cfg.BurstWindow),
		PollInterval:   time.Duration(cfg.DetectPollInterval),
		IdleInterval:   time.Duration(cfg.DetectIdleInterval),
		RecognizeEvery: time.Duration(cfg.RecognizeEvery),
	}
	newPixel := func() detect.Backend {
		rec := &platform.TesseractRecognizer{
			Binary: cfg.TesseractPath,
			Lang:   platform.TesseractLang(cfg.DefaultLocale),
		}
		return detect.NewPixelBackend(platform.NewBandCapturer(cfg.WindowName), rec,
			pixelCfg, log.Named("pixel"), m)
	}
	newTree := func() detect.Backend {
		return detect.NewUITreeBackend(platform.NewLabelReader(cfg.WindowName),
			detect.UITreeConfig{PollInterval: time.Duration(cfg.DetectPollInterval)},
			log.Named("uitree"), m)
	}

	switch cfg.DetectBackend {
	case "pixel":
		return newPixel()
	case "uitree":
		return newTree()
	case "auto":
		probe, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if _, err := platform.NewLabelReader(cfg.WindowName).Resolve(probe); err == nil {
			log.Info("detection backend selected", zap.String("backend", "uitree"))
			return newTree()
		}
		log.Info("detection backend selected", zap.String("backend", "pixel"))
		return newPixel()
	default:
		log.Warn("unknown detection backend, detection disabled",
			zap.String("backend", cfg.DetectBackend))
		return nil
	}
}
