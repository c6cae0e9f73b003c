package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/stockroom/internal/adapter/handler"
	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/config"
	"github.com/rl1809/stockroom/internal/core/service"
	"github.com/rl1809/stockroom/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	log := cfg.NewLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}

	// Initialize services
	audit := service.NewAuditLogger(store, log.WithField("component", "audit"), cfg.Inventory.AuditTimeout)
	inventory := service.NewInventoryService(store, audit, log.WithField("component", "inventory"), cfg.Inventory.MergeMaxRetries)
	reports := service.NewReportService(store, store, inventory, log.WithField("component", "reports"))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterInventoryServer(grpcServer, handler.NewGRPCHandler(inventory, reports, log.WithField("component", "grpc")))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}

	go func() {
		log.Infof("gRPC server listening on :%s", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// Initialize HTTP server
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpHandler := handler.NewHTTPHandler(inventory, reports, log.WithField("component", "http"))
	router, limiter := httpHandler.Router(handler.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})
	defer limiter.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Infof("HTTP server listening on :%s", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	healthServer.Shutdown()

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server forced to shutdown")
	}
	log.Info("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	if err := store.Close(); err != nil {
		log.WithError(err).Warn("failed to close store")
	}
	log.Info("connections closed")
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (port.Store, error) {
	switch cfg.Store {
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
		return storage.NewRedisAdapter(rdb), nil

	default:
		db, err := sql.Open("mysql", cfg.MySQL.DSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.MySQL.MaxLifetime) * time.Second)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}

		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.WithField("database", cfg.MySQL.Database).Info("connected to mysql")
		return adapter, nil
	}
}
