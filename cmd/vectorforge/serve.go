package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vector-forge/internal/config"
	"github.com/yourusername/vector-forge/internal/dashboard"
	"github.com/yourusername/vector-forge/internal/display"
	"github.com/yourusername/vector-forge/internal/jobclient"
)

func runServe(args []string) int {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	if len(args) > 0 {
		cfg.Port = args[0]
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	hub := display.NewHub(log.Default())
	client, err := newClient(cfg, display.Multi{display.NewTerminal(os.Stdout, os.Stderr), hub})
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		return 1
	}
	defer client.Close()

	router := dashboard.NewRouter(cfg, client, hub, log.Default())
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting dashboard on %s (mode: %s, backend: %s)", srv.Addr, cfg.GinMode, backendLabel(client.Endpoint(), cfg.PageOrigin))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}
	}
	return 0
}

func backendLabel(endpoint jobclient.Endpoint, origin string) string {
	if endpoint.Base() == "" {
		return origin + " (same origin)"
	}
	return endpoint.Base()
}
