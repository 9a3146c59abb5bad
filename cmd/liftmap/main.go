package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/config"
	"github.com/claude/liftmap/internal/ingest/alpha"
	lmcp "github.com/claude/liftmap/internal/mcp"
	"github.com/claude/liftmap/internal/memo"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/server"
	"github.com/claude/liftmap/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Log.SlogLevel()
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	log.Info("LiftMap starting", "version", Version)

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	model, err := loadModel(cfg.Analytics.AttributionFile)
	if err != nil {
		log.Error("failed to load muscle attribution", "error", err)
		os.Exit(1)
	}
	log.Info("muscle attribution loaded", "parts", len(model.Parts()), "groups", len(model.Groups()))

	cache := memo.New(cfg.Analytics.CacheSizeMB, cfg.Analytics.CacheTTL, log)
	engine := analytics.New(model, cache, cfg.Analytics.Trend, log)
	alphaProvider := alpha.NewProvider(db, engine.ClearCache, log)

	srv := server.New(db, engine, alphaProvider, cfg.Auth.APIKey, log)
	srv.SetDefaults(cfg.Analytics.Mode(), cfg.Analytics.TrendModeOrDefault())

	ms := lmcp.New(lmcp.NewLocal(db, engine), Version, cfg.Analytics.Mode(), cfg.Analytics.TrendModeOrDefault(), log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(ms,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return lmcp.WithUserID(ctx, server.UserID(r))
		}),
	))

	// Start server: tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

func loadModel(path string) (*muscles.Model, error) {
	if path == "" {
		return muscles.Default()
	}
	return muscles.LoadFile(path)
}
