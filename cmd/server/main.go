package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/config"
	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/gateway"
	"github.com/slicehouse/api/internal/handler"
	"github.com/slicehouse/api/internal/idempotency"
	"github.com/slicehouse/api/internal/logger"
	"github.com/slicehouse/api/internal/metrics"
	"github.com/slicehouse/api/internal/notify"
	"github.com/slicehouse/api/internal/router"
	"github.com/slicehouse/api/internal/service"
	"github.com/slicehouse/api/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to database")

	queries := database.New(pool)

	// Idempotency keys are optional; without Redis the header is ignored.
	var idem handler.IdempotencyGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable at startup, idempotency will fail open", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		idem = idempotency.NewStore(rdb, idempotency.DefaultTTL)
		log.Info("idempotency store enabled", zap.String("addr", cfg.RedisAddr))
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	notifiers := notify.Multi{notify.NewHubNotifier(hub)}
	if cfg.AMQPURL != "" {
		conn, err := notify.Dial(cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer conn.Close()
		notifiers = append(notifiers, notify.NewPublisher(conn.Channel(), log.Named("amqp")))
		log.Info("low-stock alerts publishing to broker", zap.String("exchange", notify.ExchangeInventoryAlerts))
	}

	if cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		log.Warn("payment gateway credentials missing, online orders will fail")
	}
	gw := gateway.NewClient(gateway.Options{
		BaseURL:   cfg.Gateway.BaseURL,
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: cfg.Gateway.KeySecret,
		Currency:  cfg.Gateway.Currency,
		Timeout:   cfg.Gateway.Timeout,
		RPS:       cfg.Gateway.RPS,
	}, log.Named("gateway"))
	log.Info("payment gateway configured",
		zap.String("base_url", cfg.Gateway.BaseURL),
		zap.String("key_id", logger.RedactKey(cfg.Gateway.KeyID)),
		zap.String("currency", cfg.Gateway.Currency),
	)

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)
	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, gw, service.Config{
		Currency:      cfg.Gateway.Currency,
		PaymentSecret: gw.Secret(),
		Notifier:      notifiers,
		Recorder:      orderMetrics,
		Logger:        log.Named("orders"),
	})

	sweeper := service.NewLowStockSweeper(queries, notifiers, cfg.LowStockSweep, log.Named("sweep"))
	go sweeper.Run(ctx)
	if cfg.LowStockSweep > 0 {
		log.Info("low-stock sweep scheduled", zap.Duration("interval", cfg.LowStockSweep))
	}

	r := router.New(router.Deps{
		Config:      cfg,
		Queries:     queries,
		Orders:      orders,
		Idempotency: idem,
		Hub:         hub,
		Metrics:     metrics.NewServerMetrics(prometheus.DefaultRegisterer),
		Gatherer:    prometheus.DefaultGatherer,
		DB:          pool,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
