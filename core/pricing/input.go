package pricing

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/MelomanCat/getaround-project/core/model"
)

// FeatureColumns lists every field a prediction input must carry.
func FeatureColumns() []string {
	cols := make([]string, 0, len(model.CategoricalColumns)+len(model.NumericColumns)+len(model.BooleanColumns))
	cols = append(cols, model.CategoricalColumns...)
	cols = append(cols, model.NumericColumns...)
	return append(cols, model.BooleanColumns...)
}

// DecodeInput parses raw JSON cars. Every feature column must be present
// and non-null; an omitted field is not read as its zero value.
func DecodeInput(raw []json.RawMessage) ([]model.CarFeatures, error) {
	items := make([]model.CarFeatures, len(raw))
	for i, r := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(r, &fields); err != nil {
			return nil, invalidInput("input[%d]: %v", i, err)
		}
		var missing []string
		for _, col := range FeatureColumns() {
			v, ok := fields[col]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return nil, invalidInput("input[%d]: missing required fields: %s", i, strings.Join(missing, ", "))
		}
		if err := json.Unmarshal(r, &items[i]); err != nil {
			return nil, invalidInput("input[%d]: %v", i, err)
		}
	}
	return items, nil
}
