package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/MelomanCat/getaround-project/core/model"
)

// Options controls a training run.
type Options struct {
	// TestFraction of the rows held out for evaluation. Defaults to 0.2.
	TestFraction float64 `json:"test_fraction"`
	// Seed of the train/test shuffle. Defaults to 42.
	Seed int64 `json:"seed"`
	// Lambda is the ridge penalty. Defaults to 1.
	Lambda float64 `json:"lambda"`
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		o.TestFraction = 0.2
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.Lambda <= 0 {
		o.Lambda = 1
	}
	return o
}

// Params renders the options as registry run parameters.
func (o Options) Params() map[string]string {
	return map[string]string{
		"algorithm":     AlgorithmRidge,
		"test_fraction": fmt.Sprintf("%g", o.TestFraction),
		"seed":          fmt.Sprintf("%d", o.Seed),
		"lambda":        fmt.Sprintf("%g", o.Lambda),
	}
}

// Metrics summarizes model quality on the held-out rows.
type Metrics struct {
	MAE       float64 `json:"mae"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
}

// Split shuffles rows with the given seed and holds out ceil(frac*n) of
// them, keeping at least one row on each side when n > 1.
func Split(rows []model.PricingRecord, frac float64, seed int64) (train, test []model.PricingRecord) {
	n := len(rows)
	if n < 2 {
		return append([]model.PricingRecord(nil), rows...), nil
	}
	nTest := int(math.Ceil(frac * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = make([]model.PricingRecord, 0, nTest)
	train = make([]model.PricingRecord, 0, n-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, rows[p])
		} else {
			train = append(train, rows[p])
		}
	}
	return train, test
}

// Fit solves the ridge normal equations (X'X + lambda*I')b = X'y where the
// intercept is not penalized.
func Fit(rows []model.PricingRecord, lambda float64) (*Model, error) {
	if len(rows) == 0 {
		return nil, errors.New("fit: no training rows")
	}
	if lambda < 0 {
		return nil, fmt.Errorf("fit: negative ridge penalty %g", lambda)
	}
	features := make([]model.CarFeatures, len(rows))
	prices := make([]float64, len(rows))
	for i, r := range rows {
		features[i] = r.CarFeatures
		prices[i] = r.RentalPricePerDay
	}
	enc := FitEncoder(features)
	p := enc.Width() + 1

	x := mat.NewDense(len(rows), p, nil)
	for i, f := range features {
		raw := x.RawRowView(i)
		raw[0] = 1
		enc.Encode(f, raw[1:])
	}
	y := mat.NewVecDense(len(prices), prices)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+lambda)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("fit: solve normal equations: %w", err)
		}
	}
	coef := make([]float64, p-1)
	for j := range coef {
		coef[j] = beta.AtVec(j + 1)
	}
	return &Model{
		Algorithm:    AlgorithmRidge,
		Lambda:       lambda,
		Encoder:      enc,
		Intercept:    beta.AtVec(0),
		Coefficients: coef,
		TrainedAt:    time.Now().UTC(),
	}, nil
}

// Evaluate scores the model on labelled rows.
func Evaluate(m *Model, rows []model.PricingRecord) (Metrics, error) {
	if len(rows) == 0 {
		return Metrics{}, nil
	}
	features := make([]model.CarFeatures, len(rows))
	actual := make([]float64, len(rows))
	for i, r := range rows {
		features[i] = r.CarFeatures
		actual[i] = r.RentalPricePerDay
	}
	pred, err := m.predict(features)
	if err != nil {
		return Metrics{}, err
	}
	var absSum, sqSum float64
	for i := range pred {
		d := pred[i] - actual[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(len(pred))
	met := Metrics{MAE: absSum / n, RMSE: math.Sqrt(sqSum / n), TestRows: len(rows)}
	if len(rows) > 1 {
		if r2 := stat.RSquaredFrom(pred, actual, nil); !math.IsNaN(r2) && !math.IsInf(r2, 0) {
			met.R2 = r2
		}
	}
	return met, nil
}

// Train splits the data, fits on the training part and evaluates on the
// held-out part.
func Train(rows []model.PricingRecord, opts Options) (*Model, Metrics, error) {
	opts = opts.WithDefaults()
	train, test := Split(rows, opts.TestFraction, opts.Seed)
	m, err := Fit(train, opts.Lambda)
	if err != nil {
		return nil, Metrics{}, err
	}
	met, err := Evaluate(m, test)
	if err != nil {
		return nil, Metrics{}, err
	}
	met.TrainRows = len(train)
	return m, met, nil
}
