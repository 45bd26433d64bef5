package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/veil/internal/audit"
	"github.com/antoniostano/veil/internal/backend"
	"github.com/antoniostano/veil/internal/config"
	"github.com/antoniostano/veil/internal/gateway"
	"github.com/antoniostano/veil/internal/observability"
	"github.com/antoniostano/veil/internal/quota"
	"github.com/antoniostano/veil/internal/redact"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	auditStore, err := audit.NewStore(ctx, cfg.AuditDatabaseURL)
	if err != nil {
		log.Fatalf("audit store init failed: %v", err)
	}
	defer auditStore.Close()
	trail := audit.NewTrail(auditStore)

	client, err := backend.New(backend.Config{
		Mode:    cfg.BackendMode,
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
	})
	if err != nil {
		log.Fatalf("backend client init failed: %v", err)
	}
	if _, ok := client.(*backend.MockClient); ok {
		log.Printf("backend: mock (no BACKEND_HTTP_URL configured)")
	} else {
		log.Printf("backend: http")
	}

	tracker := quota.NewTracker(cfg.QuotaCapacity, cfg.QuotaWindow)
	masker := redact.NewMasker(cfg.MaskMaxDepth)

	srv := gateway.New(cfg, tracker, masker, client, trail, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("gateway listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
