package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hadis11/study.bot/internal/health"
	"github.com/hadis11/study.bot/internal/middleware"
	"github.com/hadis11/study.bot/pkg/config"
	"github.com/hadis11/study.bot/pkg/graceful"
	"github.com/hadis11/study.bot/pkg/logger"
)

// newOpsServer serves /metrics and /healthz on the configured port.
func newOpsServer(cfg config.ServerConfig, checker *health.Checker, log *slog.Logger) *graceful.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           logger.Middleware(middleware.HTTPLogging(log)(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return graceful.NewServer(log, srv, cfg.ShutdownTimeout)
}

// workerGroup tracks background loops bound to a shared context.
type workerGroup struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorkerGroup(parent context.Context) (*workerGroup, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &workerGroup{cancel: cancel}, ctx
}

func (g *workerGroup) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// Wait stops the workers and blocks until they return or ctx ends.
func (g *workerGroup) Wait(ctx context.Context) error {
	g.cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
