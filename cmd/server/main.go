package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"seedorders/internal/config"
	"seedorders/internal/infrastructure/logger"
	"seedorders/internal/infrastructure/mysql"
	"seedorders/internal/middleware"
	"seedorders/internal/notification"
	"seedorders/internal/order"
	orderrepo "seedorders/internal/order/repository"
	"seedorders/internal/pushtoken"
	"seedorders/internal/realtime"
	"seedorders/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Database.MigrateOnStart {
		if err := mysql.RunMigrations(cfg.Database, zapLogger); err != nil {
			zapLogger.Fatal("running migrations", zap.Error(err))
		}
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer, zapLogger)

	tokenModule := pushtoken.NewModule(db, zapLogger)

	orderRepo := orderrepo.NewMySQLOrderRepository(db, hub)
	notificationModule := notification.NewModule(tokenModule.Service, orderRepo, cfg, zapLogger)

	orderCtrl, err := order.NewModule(db, orderRepo, notificationModule.Dispatcher, zapLogger)
	if err != nil {
		zapLogger.Fatal("building order module", zap.Error(err))
	}

	tokens := middleware.NewTokenService(cfg.Auth.JWTSecret)
	router := server.NewRouter(server.RouterDeps{
		Auth:          middleware.NewAuthenticator(cfg.Auth.AnonKey, cfg.Auth.ServiceKey, tokens, zapLogger),
		Orders:        orderCtrl,
		PushTokens:    tokenModule.Controller,
		Notifications: notificationModule.Controller,
		Realtime:      realtime.NewHandler(hub, zapLogger),
		Logger:        zapLogger,
	})

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
