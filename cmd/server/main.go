// Package main is the entry point for the catalog resolve server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sqlcatalog/internal/api"
	"sqlcatalog/internal/app"
	"sqlcatalog/internal/config"
	"sqlcatalog/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer application.Close() //nolint:errcheck

	if err := application.Start(cfg.CatalogReloadSchedule); err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	handler := api.NewHandler(application, api.Options{
		MaxPathSegments: cfg.MaxPathSegments,
		LookupTimeout:   cfg.LookupTimeout,
	}, logger.With("component", "api"))

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewRouter(handler, api.RouterConfig{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimiter:        limiter,
			Logger:             logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx, 5*time.Minute)
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP API listening",
			"addr", cfg.ListenAddr,
			"try", resolveHint(cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// resolveHint is the example request logged at startup.
func resolveHint(listenAddr string) string {
	return "curl 'http://" + curlHostForListenAddr(listenAddr) + "/v1/resolve/table?path=<name>'"
}

// curlHostForListenAddr turns a listen address into a host:port a local
// client can reach.
func curlHostForListenAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
