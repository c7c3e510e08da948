package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricegate/internal/api"
	"pricegate/internal/cache"
	"pricegate/internal/config"
	"pricegate/internal/gateway"
	"pricegate/internal/logger"
	"pricegate/internal/maintenance"
	"pricegate/internal/observability"
	"pricegate/internal/ratelimit"
	"pricegate/internal/upstream"
	"pricegate/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.GetInfo()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Upstream market data client
	market := upstream.NewClient(cfg.Upstream)

	// Per-client admission control. Buckets idle for twice the cleanup
	// interval are candidates for eviction unless configured otherwise.
	idleThreshold := cfg.RateLimit.IdleThreshold
	if idleThreshold == 0 {
		idleThreshold = cfg.Maintenance.CleanupInterval * 2
	}
	limiter := ratelimit.NewMemoryLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond, idleThreshold)

	// Tiered response cache
	registry := cache.NewRegistry(cache.Config{
		FastTTL:   cfg.Cache.FastTTL,
		MediumTTL: cfg.Cache.MediumTTL,
		SlowTTL:   cfg.Cache.SlowTTL,
	})

	// Gateway composes the limiter and cache. Wrap it with instrumentation
	// when metrics are enabled.
	var gw gateway.Executor = gateway.New(limiter, registry)
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedGateway(gw)
		if err != nil {
			slog.Error("Failed to create instrumented gateway", "error", err)
			os.Exit(1)
		}
		gw = instrumented
	}

	// Background maintenance: bucket eviction and cache stats reporting.
	scheduler := maintenance.NewScheduler(limiter, registry,
		cfg.Maintenance.CleanupInterval, cfg.Maintenance.StatsInterval)
	scheduler.Start()
	defer scheduler.Close()

	// Initialize HTTP handlers
	handlers := api.NewHandlers(gw, market, limiter, registry)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router := api.SetupRoutes(handlers, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}
