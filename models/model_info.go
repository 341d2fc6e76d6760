package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ModelInfo is the sidecar metadata written next to the model artifact at
// training time.
type ModelInfo struct {
	FeatureColumns      []string            `json:"feature_columns"`
	CategoricalFeatures []string            `json:"categorical_features"`
	CategoryLevels      map[string][]string `json:"category_levels,omitempty"`
}

// LoadModelInfo reads and validates the sidecar file at path.
func LoadModelInfo(path string) (*ModelInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model info: %w", err)
	}

	var info ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse model info %s: %w", path, err)
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("model info %s: %w", path, err)
	}
	return &info, nil
}

func (m *ModelInfo) Validate() error {
	if len(m.FeatureColumns) == 0 {
		return errors.New("feature_columns is empty")
	}
	if m.CategoricalFeatures == nil {
		return errors.New("categorical_features is missing")
	}

	seen := make(map[string]bool, len(m.FeatureColumns))
	for _, col := range m.FeatureColumns {
		if seen[col] {
			return fmt.Errorf("duplicate feature column %q", col)
		}
		seen[col] = true
	}
	for _, col := range m.CategoricalFeatures {
		if !seen[col] {
			return fmt.Errorf("categorical feature %q is not a feature column", col)
		}
	}
	for col := range m.CategoryLevels {
		if !m.IsCategorical(col) {
			return fmt.Errorf("category levels given for non-categorical column %q", col)
		}
	}
	return nil
}

func (m *ModelInfo) IsCategorical(column string) bool {
	for _, c := range m.CategoricalFeatures {
		if c == column {
			return true
		}
	}
	return false
}

// CategoricalsWithoutLevels lists categorical columns that have no entry in
// CategoryLevels. Every value of such a column encodes as missing.
func (m *ModelInfo) CategoricalsWithoutLevels() []string {
	var cols []string
	for _, col := range m.CategoricalFeatures {
		if _, ok := m.CategoryLevels[col]; !ok {
			cols = append(cols, col)
		}
	}
	return cols
}
