package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bie-paris/delegate-directory/internal/api"
	"github.com/bie-paris/delegate-directory/internal/cache"
	"github.com/bie-paris/delegate-directory/internal/config"
	"github.com/bie-paris/delegate-directory/internal/directory"
	"github.com/bie-paris/delegate-directory/internal/joomla"
	"github.com/bie-paris/delegate-directory/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use, so
// a stale process does not silently shadow this one.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err.Error())
		os.Exit(1)
	}
	if cfg.Joomla.BaseURL == "" {
		logger.Error("joomla.base_url is required (or set JOOMLA_BASE_URL)")
		os.Exit(1)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		logger.Error("pre-flight port check failed", "error", err.Error())
		os.Exit(1)
	}

	gateway := joomla.NewClient(joomla.Config{
		BaseURL:   cfg.Joomla.BaseURL,
		Component: cfg.Joomla.Component,
		Token:     cfg.Joomla.Token,
		Timeout:   cfg.Joomla.Timeout(),
	})

	pipeline := directory.NewPipeline()
	pipeline.SetPageSize(cfg.Directory.DefaultPageSize)
	service := directory.NewService(gateway, pipeline, cfg.Directory.RefreshInterval())

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := cache.NewSnapshotStore(rdb, cfg.Redis.SnapshotTTL())

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, snapshot cache disabled", "addr", cfg.Redis.Addr, "error", err.Error())
		} else {
			service.SetSnapshotter(store)
		}
		cancel()
	}

	// First load: try the CMS, fall back to the snapshot so a broken CMS at
	// boot still yields a (stale) directory.
	startCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := service.Refresh(startCtx); err != nil {
		if service.PrimeFromSnapshot(startCtx) {
			logger.Warn("serving stale delegate snapshot until the CMS recovers")
		} else {
			logger.Warn("no delegate data available yet", "error", err.Error())
		}
	}
	cancel()

	service.Start()
	defer service.Stop()

	handlers := api.NewHandlers(service, gateway)
	router := api.SetupRoutes(handlers)

	addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("delegate directory server listening", "addr", addr, "cms", cfg.Joomla.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err.Error())
	}
}
