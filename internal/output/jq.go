package output

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// applyJQ runs a gojq expression over data and returns the results.
// A single result is returned bare; multiple results as a slice.
func applyJQ(expr string, data any) (any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, ErrUsageHint(fmt.Sprintf("invalid --jq expression: %v", err), "See https://jqlang.org/manual/ for syntax")
	}

	// gojq operates on generic JSON values, so round-trip typed data first.
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, err
	}

	var results []any
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, ErrUsage(fmt.Sprintf("jq: %v", err))
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}
