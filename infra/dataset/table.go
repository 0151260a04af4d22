package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// table is a header-indexed view of a spreadsheet-like source.
type table struct {
	cols map[string]int
	rows [][]string
}

func newTable(records [][]string) (*table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("empty table: header row missing")
	}
	t := &table{cols: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" || strings.HasPrefix(name, "Unnamed:") {
			continue
		}
		t.cols[name] = i
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the trimmed value or "" when the column is absent or the row
// is short (spreadsheet rows drop trailing empty cells).
func (t *table) cell(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isNull(v string) bool {
	switch strings.ToLower(v) {
	case "", "nan", "null", "none", "na":
		return true
	}
	return false
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non finite value %q", v)
	}
	return f, nil
}

func (t *table) requiredFloat(row []string, col string) (float64, error) {
	v := t.cell(row, col)
	if isNull(v) {
		return 0, fmt.Errorf("column %s: value required", col)
	}
	f, err := parseFloat(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return f, nil
}

func (t *table) optFloat(row []string, col string) (*float64, error) {
	v := t.cell(row, col)
	if isNull(v) {
		return nil, nil
	}
	f, err := parseFloat(v)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	return &f, nil
}

// integers exported by spreadsheet tools often carry a ".0" suffix.
func parseInt(v string) (int64, error) {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i, nil
	}
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", v)
	}
	return int64(f), nil
}

func (t *table) requiredInt(row []string, col string) (int64, error) {
	v := t.cell(row, col)
	if isNull(v) {
		return 0, fmt.Errorf("column %s: value required", col)
	}
	i, err := parseInt(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return i, nil
}

func (t *table) optInt(row []string, col string) (*int64, error) {
	v := t.cell(row, col)
	if isNull(v) {
		return nil, nil
	}
	i, err := parseInt(v)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	return &i, nil
}

func (t *table) flag(row []string, col string) (bool, error) {
	v := t.cell(row, col)
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("column %s: %w", col, err)
	}
	return b, nil
}
