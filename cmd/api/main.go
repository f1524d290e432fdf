// @title       Exotel Gateway API
// @version     1.0
// @description Places calls and queues SMS through the Exotel REST API.
// @BasePath    /
package main

//go:generate swag init --dir ../.. --generalInfo cmd/api/main.go --output ../../internal/docs --outputTypes go

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/exotel-gateway/internal/cache/redis"
	"github.com/oggyb/exotel-gateway/internal/config"
	"github.com/oggyb/exotel-gateway/internal/db/gormdb"
	"github.com/oggyb/exotel-gateway/internal/handler"
	"github.com/oggyb/exotel-gateway/internal/logger"
	"github.com/oggyb/exotel-gateway/internal/metrics"
	mesgRepo "github.com/oggyb/exotel-gateway/internal/repository/gorm/message"
	routes "github.com/oggyb/exotel-gateway/internal/router"
	"github.com/oggyb/exotel-gateway/internal/scheduler"
	"github.com/oggyb/exotel-gateway/internal/server"
	"github.com/oggyb/exotel-gateway/internal/service"
	"github.com/oggyb/exotel-gateway/internal/sms"
	"github.com/oggyb/exotel-gateway/pkg/exotel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Base context for the whole application lifetime.
	rootCtx := context.Background()

	// Load configuration from environment/.env.
	cfg := config.New()

	zl, err := logger.New(cfg.App.Name, cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	m := metrics.New()

	// Init cache.
	cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := cache.Ping(rootCtx); err != nil {
		zl.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	defer cache.Close()

	// Init DB.
	db, err := gormdb.New(cfg.PostgresDSN())
	if err != nil {
		zl.Fatal("failed to connect db", zap.String("host", cfg.DB.Host), zap.Error(err))
	}
	defer db.Close()

	// Init Exotel client.
	opts := []exotel.Option{
		exotel.WithBaseURL(cfg.Exotel.APIURL),
		exotel.WithFlowHost(cfg.Exotel.FlowHost),
		exotel.WithHTTPClient(&http.Client{Timeout: cfg.Exotel.Timeout}),
		exotel.WithLogger(zl),
		exotel.WithObserver(m),
	}
	if cfg.Exotel.RPS > 0 {
		opts = append(opts, exotel.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Exotel.RPS), cfg.Exotel.Burst)))
	}
	api, err := exotel.New(cfg.Exotel.SID, cfg.Exotel.Token, opts...)
	if err != nil {
		zl.Fatal("failed to build exotel client", zap.Error(err))
	}

	// Init repository and services.

	// Message. Claims outlive a full batch so a slow batch is never picked up twice.
	msgRepository := mesgRepo.NewRepository(db, mesgRepo.WithClaimTTL(cfg.Scheduler.BatchTimeout+time.Minute))
	msgSvc := service.NewMessageService(
		msgRepository,
		sms.NewExotelClient(api, cfg.Exotel.SMSStatusCallback),
		api,
		cache,
		m,
		zl,
		service.MessageOptions{
			BatchSize:         cfg.Worker.BatchSize,
			MaxWorkers:        cfg.Worker.MaxWorkers,
			PerMessageTimeout: cfg.Worker.PerMessageTimeout,
			DefaultSender:     cfg.Exotel.Sender,
			DetailsTTL:        cfg.Cache.DetailsTTL,
		},
	)

	// Call
	callSvc := service.NewCallService(api, cfg.Exotel.CallerID, zl)

	// Cron
	cron := scheduler.New(msgSvc, cfg.Scheduler.Interval, cfg.Scheduler.BatchTimeout, zl)

	// HTTP dependencies & server wiring.
	deps := routes.AppDeps{
		Home:    handler.NewHomeHandler(),
		Message: handler.NewMessageHandler(msgSvc, cron),
		Call:    handler.NewCallHandler(callSvc),
		Metrics: m.Handler(),
	}

	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)
	srv := server.New(addr, server.NewHandler(deps, zl, m))

	// Cancelled on SIGINT/SIGTERM (Ctrl+C, docker stop etc.).
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("HTTP server listening", zap.String("addr", addr))

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	if cfg.Scheduler.AutoStart {
		if err := cron.Start(); err != nil {
			zl.Fatal("scheduler failed to start", zap.Error(err))
		}
	} else {
		zl.Info("scheduler left stopped; POST /scheduler to start it")
	}

	// Block until we receive a shutdown signal.
	<-ctx.Done()
	zl.Info("shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Waits for an in-flight batch to finish or time out.
	if err := cron.Stop(); err != nil {
		zl.Error("scheduler did not stop cleanly", zap.Error(err))
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server graceful shutdown failed", zap.Error(err))
	}

	zl.Info("shutdown complete")
}
