package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"punchgate/internal/audit"
	"punchgate/internal/capture"
	"punchgate/internal/clock"
	"punchgate/internal/consent"
	"punchgate/internal/location"
	"punchgate/internal/platform/config"
	"punchgate/internal/platform/httpserver"
	"punchgate/internal/platform/logger"
	"punchgate/internal/platform/metrics"
	"punchgate/internal/submit"
	httptransport "punchgate/internal/transport/http"
	"punchgate/internal/zones"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	m := metrics.New()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", "error", err.Error())
			}
		}
	}()

	// Consent persistence: durable when a store path is set, otherwise the
	// record lives only as long as the process.
	var consentStore consent.Store
	if cfg.Consent.StorePath != "" {
		sqliteStore, err := consent.NewSQLiteStore(cfg.Consent.StorePath)
		if err != nil {
			return fmt.Errorf("open consent store: %w", err)
		}
		closers = append(closers, sqliteStore.Close)
		consentStore = sqliteStore
	} else {
		consentStore = consent.NewInMemoryStore()
		log.Warn("consent store path not set; consent records are in-memory only")
	}

	auditOpts := []audit.PublisherOption{audit.WithLogger(log)}
	if cfg.Audit.Buffer > 0 {
		auditOpts = append(auditOpts, audit.WithAsyncBuffer(cfg.Audit.Buffer))
	}
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)
	defer publisher.Close()

	consentSvc, err := consent.New(consentStore,
		consent.WithLogger(log),
		consent.WithAuditPublisher(publisher),
		consent.WithRetentionDays(cfg.Consent.RetentionDays),
	)
	if err != nil {
		return fmt.Errorf("consent service: %w", err)
	}

	var provider zones.Provider
	if cfg.Zones.File != "" {
		provider, err = zones.LoadFile(cfg.Zones.File)
		if err != nil {
			return fmt.Errorf("load zones: %w", err)
		}
	} else {
		provider = zones.NewStatic(nil)
		log.Warn("no zone file configured; every location fix will be outside the geofence")
	}

	device := capture.NewSyntheticDevice(cfg.Capture.FrameWidth, cfg.Capture.FrameHeight)
	locator := location.NewFixedLocator(cfg.Location.FixedLat, cfg.Location.FixedLon)
	if cfg.Location.SimulateDelay > 0 {
		locator.SetDelay(cfg.Location.SimulateDelay)
	}

	submitter, closeSubmitter, err := buildSubmitter(cfg, log)
	if err != nil {
		return fmt.Errorf("submitter: %w", err)
	}
	if closeSubmitter != nil {
		closers = append(closers, closeSubmitter)
	}

	clockSvc, err := clock.New(consentSvc, provider, device, locator, submitter,
		clock.WithLogger(log),
		clock.WithAuditPublisher(publisher),
		clock.WithMetrics(m),
		clock.WithProbeTimeout(cfg.Location.ProbeTimeout),
	)
	if err != nil {
		return fmt.Errorf("clock service: %w", err)
	}

	handler := httptransport.NewHandler(consentSvc, clockSvc, provider, log)
	router := chi.NewRouter()
	handler.RegisterHealth(router)
	router.Handle("/metrics", promhttp.Handler())
	handler.Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting punchgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Abort any verification session left open so the camera track is
	// released before the stores close.
	if err := clockSvc.Cancel(context.Background()); err != nil {
		log.Warn("cancel active session", "error", err.Error())
	}
	return nil
}

func buildSubmitter(cfg *config.Config, log *slog.Logger) (clock.Submitter, func() error, error) {
	switch cfg.Submit.Mode {
	case "http":
		s, err := submit.NewHTTP(cfg.Submit.URL, submit.WithHTTPTimeout(cfg.Submit.Timeout))
		if err != nil {
			return nil, nil, err
		}
		log.Info("submitting events over http", "url", cfg.Submit.URL)
		return s, nil, nil
	case "kafka":
		s, err := submit.NewKafka(cfg.Submit.Brokers, cfg.Submit.Topic)
		if err != nil {
			return nil, nil, err
		}
		log.Info("submitting events to kafka", "topic", cfg.Submit.Topic)
		return s, func() error { s.Close(); return nil }, nil
	default:
		return submit.NewNoop(log), nil, nil
	}
}
