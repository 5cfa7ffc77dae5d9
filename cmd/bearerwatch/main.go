package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/bearerwatch/internal/adapter/driven/badge"
	"github.com/ericfisherdev/bearerwatch/internal/adapter/driven/har"
	"github.com/ericfisherdev/bearerwatch/internal/adapter/driven/homeassistant"
	sqliteadapter "github.com/ericfisherdev/bearerwatch/internal/adapter/driven/sqlite"
	cdpwatcher "github.com/ericfisherdev/bearerwatch/internal/adapter/driving/cdp"
	httphandler "github.com/ericfisherdev/bearerwatch/internal/adapter/driving/http"
	"github.com/ericfisherdev/bearerwatch/internal/application"
	"github.com/ericfisherdev/bearerwatch/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"clear_policy", cfg.ClearPolicy,
		"cdp", cfg.HasCDP(),
		"ingest_token", cfg.IngestToken != "",
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db)
	preferenceStore := sqliteadapter.NewPreferenceRepo(db)
	indicator := badge.New(slog.Default())
	automationClient := homeassistant.NewClient(cfg.AutomationTimeout, cfg.AutomationPath)

	// 6. Start the capture store. It outlives the HTTP server so in-flight
	// requests can finish their writes during shutdown.
	captures := application.NewCaptureStore(credentialStore, indicator, cfg.ClearPolicy, slog.Default())
	storeCtx, stopStore := context.WithCancel(context.Background())
	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		captures.Start(storeCtx)
	}()
	defer func() {
		stopStore()
		<-storeDone
	}()

	// 6b. A credential persisted by a previous run has no live owner tab, so
	// nothing would ever invalidate it. Drop it.
	if stale, err := credentialStore.Load(ctx); err != nil {
		slog.Warn("failed to read persisted credential", "error", err)
	} else if stale != nil {
		slog.Info("discarding credential from previous run", "url", stale.URL)
	}
	if err := captures.Clear(ctx); err != nil {
		return err
	}

	// 7. Create application services.
	interceptor := application.NewInterceptor(captures, slog.Default())
	dispatcher := application.NewDispatcher(interceptor, captures, slog.Default())
	forwarder := application.NewForwarder(captures, preferenceStore, automationClient, slog.Default())
	candidates := application.NewCandidateService(har.NewParser(), preferenceStore, cfg.AutomationPath)

	// 8. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(captures, indicator, dispatcher, forwarder, candidates, preferenceStore, cfg.IngestToken, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	// 9. Optional live traffic source. A lost browser connection is logged,
	// not fatal; the event ingestion endpoint keeps working.
	if cfg.HasCDP() {
		watcher := cdpwatcher.NewWatcher(cfg.CDPURL, dispatcher, slog.Default())
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				slog.Error("cdp watcher stopped", "error", err)
			}
			return nil
		})
	}

	slog.Info("bearerwatch started", "listen_addr", cfg.ListenAddr)

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
