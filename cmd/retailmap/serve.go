package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/retailmap/pkg/api"
	"github.com/hazyhaar/retailmap/pkg/catalog"
	"github.com/hazyhaar/retailmap/pkg/dataset"
)

const version = "0.1.0"

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := configFlag(fs)
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	if *addr != "" {
		cfg.Addr = *addr
	}
	loader := newLoader(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cat *catalog.DB
	if cfg.SourcesDB != "" {
		var err error
		cat, err = catalog.Open(cfg.SourcesDB)
		if err != nil {
			fatal(logger, "open sources db", err)
		}
		defer cat.Close()

		checker := catalog.NewChecker(cat, logger, cfg.CheckInterval, catalog.Discover(loader))
		checker.OnChange = func() { invalidate(loader.Cache(), logger, "source files changed") }
		go checker.Start(ctx)
	}

	svc := api.NewService(loader, cat, logger)
	mcpSrv := newMCPServer(svc)

	router := api.NewRouter(svc, api.Options{
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		MCP:       server.NewStreamableHTTPServer(mcpSrv),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP: drop cached tables so the next request rereads them.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			invalidate(loader.Cache(), logger, "SIGHUP received")
		}
	}()

	go func() {
		logger.Info("retailmap listening", "addr", cfg.Addr, "data_dir", cfg.DataDir, "cache", cfg.Cache)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func invalidate(c *dataset.Cache, logger *slog.Logger, reason string) {
	if c == nil {
		return
	}
	n := c.Len()
	c.Invalidate()
	logger.Info("cache invalidated", "reason", reason, "entries", n)
}

func newMCPServer(svc *api.Service) *server.MCPServer {
	srv := server.NewMCPServer("retailmap", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, svc)
	return srv
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	svc := api.NewService(newLoader(cfg, logger), nil, logger)

	if err := server.ServeStdio(newMCPServer(svc)); err != nil {
		fatal(logger, "mcp server", err)
	}
}
