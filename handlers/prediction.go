package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"car-price-api/models"
	"car-price-api/services"

	"github.com/gin-gonic/gin"
)

// Predictor produces a price estimate for a raw request payload.
type Predictor interface {
	Predict(ctx context.Context, payload map[string]any) (*models.PredictionResponse, error)
}

type PredictionHandler struct {
	predictor Predictor
}

func NewPredictionHandler(predictor Predictor) *PredictionHandler {
	return &PredictionHandler{predictor: predictor}
}

// Predict answers POST /predict. A missing required field is the only
// client error; every other failure is reported as a 500 carrying the
// error text.
func (h *PredictionHandler) Predict(c *gin.Context) {
	payload, err := decodePayload(c.Request.Body)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := services.CheckRequired(payload); err != nil {
		h.fail(c, err)
		return
	}

	resp, err := h.predictor.Predict(c.Request.Context(), payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PredictionHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	var missing *services.MissingFieldError
	if errors.As(err, &missing) {
		status = http.StatusBadRequest
	}

	c.JSON(status, models.ErrorResponse{Success: false, Error: err.Error()})
}

// decodePayload reads a single JSON object, keeping numbers as json.Number
// so integer fields are not routed through float64.
func decodePayload(body io.Reader) (map[string]any, error) {
	if body == nil {
		return nil, errors.New("request body is empty")
	}

	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON body: unexpected data after the top-level value")
	}

	payload, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("request body must be a JSON object, got %T", raw)
	}
	return payload, nil
}
