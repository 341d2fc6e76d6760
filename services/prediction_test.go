package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegressor struct {
	price float64
	err   error
	calls int
	last  FeatureRow
}

func (f *fakeRegressor) Predict(row FeatureRow) (float64, error) {
	f.calls++
	f.last = row
	return f.price, f.err
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{0, "0"},
		{2.5, "2"},
		{3.5, "4"},
		{999, "999"},
		{1234567, "1,234,567"},
		{1234567.8, "1,234,568"},
		{850000000, "850,000,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.price), "price %v", tt.price)
	}
}

func TestConfidenceBand(t *testing.T) {
	tests := []struct {
		price    float64
		min, max float64
	}{
		{1000, 900, 1100},
		{850000000, 765000000, 935000000},
		{123456789.4, 111111110, 135802468},
		{0, 0, 0},
	}
	for _, tt := range tests {
		band := ConfidenceBand(tt.price)
		assert.Equal(t, tt.min, band.Min, "min for %v", tt.price)
		assert.Equal(t, tt.max, band.Max, "max for %v", tt.price)
		assert.LessOrEqual(t, band.Min, band.Max)
	}
}

func TestConfidenceBandRoundsHalfToEven(t *testing.T) {
	tests := []struct {
		price    float64
		min, max float64
	}{
		// 0.9 * 25 = 22.5 lands exactly on the midpoint
		{25, 22, 28},
		{2.5, 2, 3},
		{1234567.5, 1111111, 1358024},
	}
	for _, tt := range tests {
		band := ConfidenceBand(tt.price)
		assert.Equal(t, tt.min, band.Min, "min for %v", tt.price)
		assert.Equal(t, tt.max, band.Max, "max for %v", tt.price)
	}
}

func TestPredictionServicePredict(t *testing.T) {
	reg := &fakeRegressor{price: 1234567.8}
	svc := NewPredictionService(newTestDeriver(), reg, &CacheService{}, "تومان")

	resp, err := svc.Predict(context.Background(), basePayload())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1234567.8, resp.PredictedPrice)
	assert.Equal(t, "1,234,568", resp.FormattedPrice)
	assert.Equal(t, "تومان", resp.Currency)
	assert.Equal(t, ConfidenceBand(1234567.8), resp.Confidence)

	assert.Equal(t, 1, reg.calls)
	assert.Equal(t, allColumns, reg.last.Columns)
	assert.Equal(t, 4.0, reg.last.Float("car_age"))
}

func TestPredictionServiceNilCache(t *testing.T) {
	reg := &fakeRegressor{price: 10}
	svc := NewPredictionService(newTestDeriver(), reg, nil, "تومان")

	_, err := svc.Predict(context.Background(), basePayload())
	require.NoError(t, err)
	_, err = svc.Predict(context.Background(), basePayload())
	require.NoError(t, err)
	assert.Equal(t, 2, reg.calls)
}

func TestPredictionServiceErrors(t *testing.T) {
	t.Run("missing field skips inference", func(t *testing.T) {
		reg := &fakeRegressor{price: 1}
		svc := NewPredictionService(newTestDeriver(), reg, nil, "")
		payload := basePayload()
		delete(payload, "fuel")

		_, err := svc.Predict(context.Background(), payload)
		var missing *MissingFieldError
		assert.True(t, errors.As(err, &missing))
		assert.Zero(t, reg.calls)
	})

	t.Run("inference failure is returned", func(t *testing.T) {
		reg := &fakeRegressor{err: errors.New("tree walk failed")}
		svc := NewPredictionService(newTestDeriver(), reg, nil, "")

		_, err := svc.Predict(context.Background(), basePayload())
		assert.EqualError(t, err, "tree walk failed")
	})
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "missing_field", failureReason(&MissingFieldError{Field: "year"}))
	assert.Equal(t, "missing_features", failureReason(&MissingFeaturesError{Columns: []string{"x"}}))
	assert.Equal(t, "coercion", failureReason(&CoercionError{Field: "year"}))
	assert.Equal(t, "other", failureReason(errors.New("boom")))
}
