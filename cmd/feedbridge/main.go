// Package main boots the feedbridge HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/feedbridge/internal/config"
	"github.com/fairyhunter13/feedbridge/internal/feed"
	httpapi "github.com/fairyhunter13/feedbridge/internal/http"
	"github.com/fairyhunter13/feedbridge/internal/obs"
	"github.com/fairyhunter13/feedbridge/internal/reconcile"
	"github.com/fairyhunter13/feedbridge/internal/shopify"
)

func main() {
	_ = godotenv.Load()
	obs.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		obs.Logger.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("service_starting", "shop", cfg.ShopName)

	catalog := shopify.NewClient(cfg)
	feeds := feed.NewFetcher(cfg.UpstreamTimeout)
	rec := reconcile.New(cfg, catalog, feeds)

	app := httpapi.NewApp(cfg, rec)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * cfg.UpstreamTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}
