package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"car-price-api/config"
)

// RequiredFields lists the payload fields every prediction request must
// carry, in the order they are checked.
var RequiredFields = []string{
	"car_name", "year", "kilometer",
	"gearbox", "fuel", "body_status", "model",
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing field: " + e.Field
}

// MissingFeaturesError means the model declares columns the deriver does not
// produce. It points at a mismatch between the model artifact and this
// service, not at the request.
type MissingFeaturesError struct {
	Columns []string
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("Missing features: %v", e.Columns)
}

type CoercionError struct {
	Field string
	Value any
	Want  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: cannot convert %#v to %s", e.Field, e.Value, e.Want)
}

// FeatureRow is one model input row. Values holds float64 for numeric
// columns and string for categorical ones, aligned with Columns.
type FeatureRow struct {
	Columns []string
	Values  []any
}

func (r FeatureRow) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r FeatureRow) Float(column string) float64 {
	v, _ := r.Get(column)
	f, _ := v.(float64)
	return f
}

type FeatureDeriver struct {
	CurrentYear    int
	AutomaticLabel string
	DefaultColor   string
	Columns        []string
}

func NewFeatureDeriver(cfg config.ModelConfig, columns []string) *FeatureDeriver {
	return &FeatureDeriver{
		CurrentYear:    cfg.CurrentYear,
		AutomaticLabel: cfg.AutomaticLabel,
		DefaultColor:   cfg.DefaultColor,
		Columns:        columns,
	}
}

// CheckRequired returns a MissingFieldError for the first required field
// absent from payload. A field present with a null value counts as present.
func CheckRequired(payload map[string]any) error {
	for _, field := range RequiredFields {
		if _, ok := payload[field]; !ok {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

// Derive validates payload and returns the row in the model's column order.
func (d *FeatureDeriver) Derive(payload map[string]any) (FeatureRow, error) {
	features, err := d.Features(payload)
	if err != nil {
		return FeatureRow{}, err
	}

	var missing []string
	for _, col := range d.Columns {
		if _, ok := features[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return FeatureRow{}, &MissingFeaturesError{Columns: missing}
	}

	row := FeatureRow{
		Columns: d.Columns,
		Values:  make([]any, len(d.Columns)),
	}
	for i, col := range d.Columns {
		row.Values[i] = features[col]
	}
	return row, nil
}

// Features computes every raw and derived feature the service knows about,
// keyed by column name.
func (d *FeatureDeriver) Features(payload map[string]any) (map[string]any, error) {
	if err := CheckRequired(payload); err != nil {
		return nil, err
	}

	year, err := toInt("year", payload["year"])
	if err != nil {
		return nil, err
	}
	kilometer, err := toInt("kilometer", payload["kilometer"])
	if err != nil {
		return nil, err
	}

	// float64 throughout: any int64 year is valid input.
	carAge := math.Max(0, float64(d.CurrentYear)-float64(year))

	kmPerYear, err := providedKmPerYear(payload)
	if err != nil {
		return nil, err
	}
	if kmPerYear <= 0 {
		if carAge > 0 {
			kmPerYear = float64(kilometer) / carAge
		} else {
			kmPerYear = float64(kilometer)
		}
	}

	kmPerMonth := float64(kilometer) / (carAge*12 + 1)

	features := map[string]any{
		"car_age":      carAge,
		"kilometer":    float64(kilometer),
		"km_per_year":  kmPerYear,
		"km_per_month": kmPerMonth,
		"zero_km":      boolFeature(kilometer == 0),
	}

	for _, field := range []string{"car_name", "gearbox", "fuel", "body_status", "model"} {
		value, err := toCategory(field, payload[field])
		if err != nil {
			return nil, err
		}
		features[field] = value
	}

	color := d.DefaultColor
	if raw, ok := payload["color"]; ok && raw != nil {
		if color, err = toCategory("color", raw); err != nil {
			return nil, err
		}
	}
	features["color"] = color
	features["is_automatic"] = boolFeature(features["gearbox"] == d.AutomaticLabel)

	return features, nil
}

// providedKmPerYear returns the caller's km_per_year, or 0 when the caller
// left it out or sent a value that selects the fallback.
func providedKmPerYear(payload map[string]any) (float64, error) {
	raw, ok := payload["km_per_year"]
	if !ok || raw == nil {
		return 0, nil
	}

	var f float64
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, &CoercionError{Field: "km_per_year", Value: raw, Want: "number"}
		}
		f = n
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &CoercionError{Field: "km_per_year", Value: raw, Want: "number"}
		}
		f = n
	default:
		return 0, &CoercionError{Field: "km_per_year", Value: raw, Want: "number"}
	}

	if math.IsNaN(f) || f <= 0 {
		return 0, nil
	}
	return f, nil
}

// toInt truncates fractional numbers toward zero and parses base-10 strings.
func toInt(field string, raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, &CoercionError{Field: field, Value: raw, Want: "integer"}
		}
		return truncate(field, f)
	case float64:
		return truncate(field, v)
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, &CoercionError{Field: field, Value: raw, Want: "integer"}
		}
		return n, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &CoercionError{Field: field, Value: raw, Want: "integer"}
	}
}

func truncate(field string, f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, &CoercionError{Field: field, Value: f, Want: "integer"}
	}
	return int64(math.Trunc(f)), nil
}

func toCategory(field string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", &CoercionError{Field: field, Value: raw, Want: "category"}
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
