package pricing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/MelomanCat/getaround-project/core/model"
)

// Scaler standardizes one numeric column.
type Scaler struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

func (s Scaler) apply(v float64) float64 {
	if s.Std == 0 {
		return v - s.Mean
	}
	return (v - s.Mean) / s.Std
}

// Encoder turns CarFeatures into a dense design row. Categories never seen
// during fitting encode to all zeros.
type Encoder struct {
	Categories map[string][]string `json:"categories"`
	Scalers    []Scaler            `json:"scalers"`
	Booleans   []string            `json:"booleans"`

	index map[string]map[string]int
}

// FitEncoder learns categories and scaling parameters from training rows.
func FitEncoder(rows []model.CarFeatures) *Encoder {
	e := &Encoder{Categories: map[string][]string{}, Booleans: append([]string(nil), model.BooleanColumns...)}
	for _, col := range model.CategoricalColumns {
		seen := map[string]struct{}{}
		for _, r := range rows {
			seen[r.Categorical(col)] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		e.Categories[col] = cats
	}
	for _, col := range model.NumericColumns {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = r.Numeric(col)
		}
		mean, std := 0.0, 0.0
		if len(vals) > 0 {
			mean, std = stat.MeanStdDev(vals, nil)
		}
		if len(vals) < 2 {
			std = 0
		}
		e.Scalers = append(e.Scalers, Scaler{Column: col, Mean: mean, Std: std})
	}
	e.buildIndex()
	return e
}

func (e *Encoder) buildIndex() {
	e.index = make(map[string]map[string]int, len(e.Categories))
	for col, cats := range e.Categories {
		m := make(map[string]int, len(cats))
		for i, c := range cats {
			m[c] = i
		}
		e.index[col] = m
	}
}

// Width is the number of encoded features, intercept excluded.
func (e *Encoder) Width() int {
	n := len(e.Scalers) + len(e.Booleans)
	for _, col := range model.CategoricalColumns {
		n += len(e.Categories[col])
	}
	return n
}

// Encode writes the features of c into dst, which must have Width entries.
// The encoder must come from FitEncoder or Decode.
func (e *Encoder) Encode(c model.CarFeatures, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	off := 0
	for _, col := range model.CategoricalColumns {
		if i, ok := e.index[col][c.Categorical(col)]; ok {
			dst[off+i] = 1
		}
		off += len(e.Categories[col])
	}
	for _, s := range e.Scalers {
		dst[off] = s.apply(c.Numeric(s.Column))
		off++
	}
	for _, col := range e.Booleans {
		if c.Boolean(col) {
			dst[off] = 1
		}
		off++
	}
}
