// Command server runs the key/value service: the HTTP front end over the
// request coordinator, backed by the sharded cache, the durable-store
// session pool, and the write-behind worker pool, with Prometheus metrics
// on a separate listener.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MohitThorat/kvserver/cache"
	"github.com/MohitThorat/kvserver/config"
	"github.com/MohitThorat/kvserver/coordinator"
	"github.com/MohitThorat/kvserver/log"
	zaplog "github.com/MohitThorat/kvserver/log/zap"
	"github.com/MohitThorat/kvserver/metrics/prom"
	"github.com/MohitThorat/kvserver/queue"
	"github.com/MohitThorat/kvserver/server"
	"github.com/MohitThorat/kvserver/store"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		// flag.CommandLine is in ExitOnError mode for usage errors; this
		// catches validation failures.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	logger := zaplog.Logger{L: zl}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := store.Open(ctx, store.PoolConfig{DSN: cfg.DSN, Size: cfg.SessionPoolSize})
	if err != nil {
		logger.Error("durable store unavailable", log.Fields{"err": err})
		os.Exit(1)
	}
	defer func() { _ = sessions.Close() }()
	adapter := store.NewAdapter(cfg.StatementTimeout)

	q, err := queue.New(queue.Options{})
	if err != nil {
		logger.Error("write-behind queue", log.Fields{"err": err})
		os.Exit(1)
	}

	metrics := prom.New(nil, "kvserver", "cache", nil)
	prom.RegisterBacklog(nil, "kvserver", q, sessions)

	c := cache.New[string, []byte](cache.Options[string, []byte]{
		Capacity:   cfg.CacheTotalCapacity,
		Shards:     cfg.NumShards,
		SampleSize: cfg.SampleSize,
		Metrics:    metrics,
	})
	defer func() { _ = c.Close() }()

	workers := queue.NewPool(q, sessions, adapter, logger)
	workers.Start(context.Background(), cfg.WriteBehindWorkers)

	co := coordinator.New(c, sessions, adapter, q, logger)
	front := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(co, cfg.HandlerThreads, logger).Handler(),
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener stopped", log.Fields{"err": err})
		}
	}()

	// Periodic backlog log line, alongside the scrape-time gauges.
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				logger.Info("write-behind backlog", log.Fields{
					"queue_depth":   q.Len(),
					"idle_sessions": sessions.Len(),
				})
			}
		}
	}()

	go func() {
		logger.Info("serving", log.Fields{
			"listen":  cfg.ListenAddr,
			"metrics": cfg.MetricsAddr,
			"shards":  cfg.NumShards,
			"workers": cfg.WriteBehindWorkers,
		})
		if err := front.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http listener stopped", log.Fields{"err": err})
			stop()
		}
	}()

	<-ctx.Done()

	// Stop taking requests, then drain the write-behind queue so every
	// acknowledged mutation reaches the durable store before exit.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := front.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", log.Fields{"err": err})
	}
	_ = metricsSrv.Shutdown(shutdownCtx)

	q.Close()
	workers.Wait()
	logger.Info("write-behind drained, exiting", log.Fields{})
}
