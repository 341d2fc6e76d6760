package handlers

import (
	"car-price-api/config"
	"car-price-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config, predictor Predictor) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	prediction := NewPredictionHandler(predictor)
	router.POST("/predict", prediction.Predict)

	return router
}
