package services

import (
	"context"
	"errors"
	"time"

	"car-price-api/logger"
	"car-price-api/models"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats/scalar"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders price rounded to a whole number with comma thousands
// separators, e.g. 1234567.8 -> "1,234,568".
func FormatPrice(price float64) string {
	return pricePrinter.Sprintf("%.0f", price)
}

// ConfidenceBand returns the fixed ±10% band around price, rounded half to
// even.
func ConfidenceBand(price float64) models.Confidence {
	return models.Confidence{
		Min: scalar.RoundEven(price*0.9, 0),
		Max: scalar.RoundEven(price*1.1, 0),
	}
}

// PredictionService runs a payload through derivation, the cache and the
// model. Its collaborators are read-only after construction.
type PredictionService struct {
	deriver   *FeatureDeriver
	regressor Regressor
	cache     *CacheService
	currency  string
}

func NewPredictionService(deriver *FeatureDeriver, regressor Regressor, cache *CacheService, currency string) *PredictionService {
	return &PredictionService{
		deriver:   deriver,
		regressor: regressor,
		cache:     cache,
		currency:  currency,
	}
}

func (s *PredictionService) Predict(ctx context.Context, payload map[string]any) (*models.PredictionResponse, error) {
	row, err := s.deriver.Derive(payload)
	if err != nil {
		predictionsFailed.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	price, err := s.predictPrice(ctx, row)
	if err != nil {
		predictionsFailed.WithLabelValues("inference").Inc()
		return nil, err
	}
	predictionsServed.Inc()

	return &models.PredictionResponse{
		Success:        true,
		PredictedPrice: price,
		FormattedPrice: FormatPrice(price),
		Currency:       s.currency,
		Confidence:     ConfidenceBand(price),
	}, nil
}

// predictPrice consults the cache around inference. Cache errors are logged
// and otherwise ignored.
func (s *PredictionService) predictPrice(ctx context.Context, row FeatureRow) (float64, error) {
	if !s.cache.Available() {
		return s.infer(row)
	}

	key, err := s.cache.Key(row)
	if err != nil {
		logger.Log.Warn("cache key failed", zap.Error(err))
		return s.infer(row)
	}

	price, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		cacheHits.Inc()
		return price, nil
	}

	price, err = s.infer(row)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, key, price); err != nil {
		logger.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return price, nil
}

func (s *PredictionService) infer(row FeatureRow) (float64, error) {
	start := time.Now()
	defer func() {
		inferenceDuration.Observe(time.Since(start).Seconds())
	}()
	return s.regressor.Predict(row)
}

func failureReason(err error) string {
	var (
		missingField    *MissingFieldError
		missingFeatures *MissingFeaturesError
		coercion        *CoercionError
	)
	switch {
	case errors.As(err, &missingField):
		return "missing_field"
	case errors.As(err, &missingFeatures):
		return "missing_features"
	case errors.As(err, &coercion):
		return "coercion"
	default:
		return "other"
	}
}
