package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"car-price-api/config"
	"car-price-api/handlers"
	"car-price-api/logger"
	"car-price-api/models"
	"car-price-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Model and metadata are loaded once; the server does not start without them.
	info, err := models.LoadModelInfo(cfg.Model.InfoPath)
	if err != nil {
		logger.Log.Fatal("failed to load model info", zap.Error(err))
	}
	regressor, err := services.LoadRegressor(cfg.Model, info)
	if err != nil {
		logger.Log.Fatal("failed to load model", zap.Error(err))
	}
	logger.Log.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.String("format", cfg.Model.Format),
		zap.Strings("feature_columns", info.FeatureColumns),
		zap.Strings("categorical_features", info.CategoricalFeatures),
		zap.Int("current_year", cfg.Model.CurrentYear),
	)

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		logger.Log.Warn("prediction cache disabled", zap.Error(err))
	}
	defer cache.Close()

	deriver := services.NewFeatureDeriver(cfg.Model, info.FeatureColumns)
	predictor := services.NewPredictionService(deriver, regressor, cache, cfg.Model.CurrencyLabel)

	gin.SetMode(cfg.Server.GinMode)
	router := handlers.NewRouter(cfg, predictor)

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
}
