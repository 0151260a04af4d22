package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MelomanCat/getaround-project/core/model"
)

// AlgorithmRidge identifies the ridge regression pipeline.
const AlgorithmRidge = "ridge"

// Predictor returns one daily price per input car.
type Predictor interface {
	Predict(ctx context.Context, items []model.CarFeatures) ([]float64, error)
}

// Model is a fitted pricing pipeline.
type Model struct {
	Algorithm    string    `json:"algorithm"`
	Lambda       float64   `json:"lambda"`
	Encoder      *Encoder  `json:"encoder"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Marshal serializes the model as a registry artifact.
func (m *Model) Marshal() ([]byte, error) { return json.Marshal(m) }

// Decode restores a model from a registry artifact.
func Decode(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if m.Encoder == nil {
		return nil, fmt.Errorf("decode model: encoder missing")
	}
	m.Encoder.buildIndex()
	if got, want := len(m.Coefficients), m.Encoder.Width(); got != want {
		return nil, fmt.Errorf("decode model: %d coefficients for %d features", got, want)
	}
	return &m, nil
}

// Validate checks a prediction batch.
func Validate(items []model.CarFeatures) error {
	if len(items) == 0 {
		return invalidInput("input must contain at least one car")
	}
	for i, it := range items {
		for _, col := range model.CategoricalColumns {
			if strings.TrimSpace(it.Categorical(col)) == "" {
				return invalidInput("input[%d].%s: value required", i, col)
			}
		}
		for _, col := range model.NumericColumns {
			v := it.Numeric(col)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidInput("input[%d].%s: must be a finite number", i, col)
			}
		}
	}
	return nil
}

// Predict implements Predictor.
func (m *Model) Predict(ctx context.Context, items []model.CarFeatures) ([]float64, error) {
	if err := Validate(items); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, invocationFailed("prediction aborted: %w", err)
	}
	return m.predict(items)
}

func (m *Model) predict(items []model.CarFeatures) ([]float64, error) {
	if m.Encoder == nil {
		return nil, invocationFailed("model has no encoder")
	}
	width := m.Encoder.Width()
	if len(m.Coefficients) != width {
		return nil, invocationFailed("model expects %d features, has %d coefficients", width, len(m.Coefficients))
	}
	row := make([]float64, width)
	out := make([]float64, len(items))
	for i, it := range items {
		m.Encoder.Encode(it, row)
		y := m.Intercept
		for j, x := range row {
			y += m.Coefficients[j] * x
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, invocationFailed("non finite prediction for input[%d]", i)
		}
		out[i] = y
	}
	return out, nil
}
