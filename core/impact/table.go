package impact

import (
	"golang.org/x/sync/errgroup"

	"github.com/MelomanCat/getaround-project/core/model"
)

// Row is one cell of the scope x threshold grid.
type Row struct {
	Scope     Scope `json:"scope"`
	Threshold int   `json:"threshold"`
	Result
}

// Table computes every (scope, threshold) combination. Rows are ordered by
// scope then by threshold as given. Combinations are independent and are
// evaluated concurrently over the shared read-only records.
func Table(records []model.RentalRecord, prices Prices, thresholds []int) ([]Row, error) {
	rows := make([]Row, len(Scopes)*len(thresholds))

	var g errgroup.Group
	for si, scope := range Scopes {
		for ti, threshold := range thresholds {
			scope, threshold := scope, threshold
			idx := si*len(thresholds) + ti
			g.Go(func() error {
				res, err := Compute(records, prices, scope, threshold)
				if err != nil {
					return err
				}
				rows[idx] = Row{Scope: scope, Threshold: threshold, Result: res}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
