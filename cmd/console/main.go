package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/clientpolicy-console/internal/audit"
	"github.com/xela07ax/clientpolicy-console/internal/catalog"
	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"github.com/xela07ax/clientpolicy-console/internal/console/handler"
	"github.com/xela07ax/clientpolicy-console/internal/console/server"
	"github.com/xela07ax/clientpolicy-console/internal/console/service"
	"github.com/xela07ax/clientpolicy-console/internal/gateway"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
	"github.com/xela07ax/clientpolicy-console/internal/infra/auth"
	"github.com/xela07ax/clientpolicy-console/internal/notify"
	"github.com/xela07ax/clientpolicy-console/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("console stopped with error", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст жизненного цикла фоновых горутин; SIGTERM отменяет его
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	initCtx, cancel := context.WithTimeout(appCtx, 5*time.Second)
	defer cancel()

	db, err := postgres.NewDB(initCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(initCtx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := db.Migrate(initCtx); err != nil {
		return err
	}

	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		return err
	}
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		return err
	}

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := clientpolicy.NewMetrics(reg)

	// 3. Хранилище политик + сигнал об обновлении для остальных инстансов
	store, err := newStore(cfg.Gateway, db, logger)
	if err != nil {
		return err
	}
	policyGateway := gateway.NewNotifying(store, rdb, logger)

	// 4. Журнал действий пишет в Postgres пачками
	auditRepo := postgres.NewAuditRepo(db)
	journal := audit.NewJournal(auditRepo, audit.Options{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
	}, logger)
	journal.Start()
	defer journal.Stop()

	// 5. Кэш списка, инвалидируемый через Redis
	policyCatalog := catalog.New(policyGateway, cfg.Server.CatalogTTL, logger)
	go policyCatalog.Listen(appCtx, rdb)

	// 6. Уведомления уходят во внешний канал, публикация асинхронная
	broadcaster := notify.NewBroadcaster(rdb, 0, logger)
	broadcaster.Start()
	defer broadcaster.Stop()

	sessions := service.NewSessionManager(service.SessionOptions{
		Gateway:   policyGateway,
		Auditor:   journal,
		Broadcast: broadcaster,
		Metrics:   metrics,
		TTL:       cfg.Server.SessionTTL,
		Logger:    logger,
	})
	go sessions.Run(appCtx)
	defer sessions.CloseAll()

	authService := service.NewAuthService(postgres.NewUserRepo(db), privKey, auth.NewBaseValidator(pubKey), cfg.Auth.TokenTTL)

	// /metrics на отдельном порту, если он задан
	var gatherer prometheus.Gatherer = reg
	if cfg.Server.MetricsPort > 0 {
		gatherer = nil
		go serveMetrics(cfg.Server.MetricsPort, reg, logger)
	}

	api := server.NewConsoleServer(logger, authService, gatherer, server.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Policy:   handler.NewPolicyHandler(service.NewPolicyService(policyCatalog)),
		Sessions: handler.NewSessionHandler(sessions, logger),
		Audit:    handler.NewAuditHandler(service.NewAuditService(auditRepo)),
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console API started", zap.String("addr", srv.Addr), zap.String("gateway_mode", cfg.Gateway.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 6. Graceful shutdown
	select {
	case <-appCtx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("shutting down console API")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newStore выбирает хранилище политик по gateway.mode.
func newStore(cfg infra.GatewayConfig, db *postgres.DB, logger *zap.Logger) (gateway.Store, error) {
	switch cfg.Mode {
	case infra.GatewayModeHTTP:
		return gateway.NewAdminClient(gateway.Options{
			BaseURL:       cfg.BaseURL,
			Token:         cfg.Token,
			Timeout:       cfg.Timeout,
			RateLimit:     cfg.RateLimit,
			RateBurst:     cfg.RateBurst,
			Retries:       cfg.Retries,
			CBFailures:    cfg.CBFailures,
			CBMaxRequests: cfg.MaxRequests,
			CBInterval:    cfg.CBInterval,
			CBTimeout:     cfg.CBTimeout,
		}, logger), nil
	case infra.GatewayModePostgres:
		return postgres.NewClientPolicyStore(db), nil
	case infra.GatewayModeMemory:
		return gateway.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown gateway mode %q", cfg.Mode)
	}
}

func serveMetrics(port int, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := ":" + strconv.Itoa(port)
	logger.Info("metrics endpoint started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint stopped", zap.Error(err))
	}
}
