package services

import (
	"fmt"
	"math"

	"car-price-api/config"
	"car-price-api/logger"
	"car-price-api/models"

	"github.com/dmitryikh/leaves"
	"go.uber.org/zap"
)

// Regressor is a loaded point-prediction model. Implementations must be
// safe for concurrent use.
type Regressor interface {
	Predict(row FeatureRow) (float64, error)
}

// Encoder turns a FeatureRow into the dense float vector a tree ensemble
// consumes. Categorical columns map to their level index.
type Encoder struct {
	info   *models.ModelInfo
	levels map[string]map[string]float64
}

func NewEncoder(info *models.ModelInfo) *Encoder {
	levels := make(map[string]map[string]float64, len(info.CategoryLevels))
	for col, values := range info.CategoryLevels {
		index := make(map[string]float64, len(values))
		for i, v := range values {
			index[v] = float64(i)
		}
		levels[col] = index
	}
	return &Encoder{info: info, levels: levels}
}

// Encode returns one float per row column. Unknown categories encode as NaN.
func (e *Encoder) Encode(row FeatureRow) ([]float64, error) {
	out := make([]float64, len(row.Columns))
	for i, col := range row.Columns {
		switch v := row.Values[i].(type) {
		case float64:
			out[i] = v
		case string:
			if !e.info.IsCategorical(col) {
				return nil, fmt.Errorf("feature %s: got category %q for a numeric column", col, v)
			}
			idx, ok := e.levels[col][v]
			if !ok {
				idx = math.NaN()
			}
			out[i] = idx
		default:
			return nil, fmt.Errorf("feature %s: unsupported value type %T", col, v)
		}
	}
	return out, nil
}

// LeavesRegressor evaluates a LightGBM or XGBoost ensemble in process.
type LeavesRegressor struct {
	model   *leaves.Ensemble
	encoder *Encoder
}

// LoadRegressor reads the model artifact and checks it against the sidecar
// metadata. It is called once at startup.
func LoadRegressor(cfg config.ModelConfig, info *models.ModelInfo) (*LeavesRegressor, error) {
	var (
		model *leaves.Ensemble
		err   error
	)
	switch cfg.Format {
	case "xgboost":
		model, err = leaves.XGEnsembleFromFile(cfg.Path, false)
	default:
		model, err = leaves.LGEnsembleFromFile(cfg.Path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s model %s: %w", cfg.Format, cfg.Path, err)
	}

	if model.NFeatures() != len(info.FeatureColumns) {
		return nil, fmt.Errorf("model expects %d features, model info declares %d",
			model.NFeatures(), len(info.FeatureColumns))
	}
	if model.NOutputGroups() != 1 {
		return nil, fmt.Errorf("model has %d output groups, want a single regression output", model.NOutputGroups())
	}
	for _, col := range info.CategoricalsWithoutLevels() {
		logger.Log.Warn("categorical feature has no category levels, every value will be treated as missing",
			zap.String("column", col))
	}

	return &LeavesRegressor{model: model, encoder: NewEncoder(info)}, nil
}

func (r *LeavesRegressor) Predict(row FeatureRow) (float64, error) {
	fvals, err := r.encoder.Encode(row)
	if err != nil {
		return 0, err
	}
	price := r.model.PredictSingle(fvals, 0)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("model returned non-finite prediction %v", price)
	}
	return price, nil
}
