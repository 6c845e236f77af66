package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canteen-be/internal/config"
	"canteen-be/internal/db"
	"canteen-be/internal/httpapi"
	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/order"
	"canteen-be/internal/pickup"
	"canteen-be/internal/realtime"
	"canteen-be/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	hub := realtime.NewHub()
	go hub.Run()

	codec := pickup.NewCodec(cfg.QRCodeSecret)
	tokens := user.NewTokenManager(cfg.JWTSecret)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, tokens)

	menuRepo := menu.NewRepository(database)
	menuSvc := menu.NewService(menuRepo, hub)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, codec, hub)

	server := httpapi.NewServer(
		httpapi.NewAuthHandler(userSvc),
		httpapi.NewMenuHandler(menuSvc),
		httpapi.NewOrderHandler(orderSvc),
		hub, tokens, userSvc,
		cfg.AllowedOrigin,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("canteen server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	hub.Shutdown()
}
