package runner

import (
	"encoding/json"
	"os"
	"slices"
)

// Override keys recognized by the argument resolver. Everything else in a
// baseline passes through untouched.
const (
	FlagStartDate = "--start-date"
	FlagEndDate   = "--end-date"
)

// LoadQueryConfig reads the static per-query baseline argument lists.
// A missing file, malformed JSON or a non-list entry all yield an empty
// mapping rather than an error: a query without a baseline simply runs
// with no extra arguments.
func LoadQueryConfig(path string) map[string][]string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return map[string][]string{}
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string][]string{}
	}

	normalized := make(map[string][]string, len(data))
	for key, value := range data {
		var args []string
		if err := json.Unmarshal(value, &args); err != nil {
			continue
		}
		normalized[key] = args
	}
	return normalized
}

// ResolveArgs merges date-range overrides into a baseline argument list.
// When an override's flag already appears in the baseline, the token
// following it is replaced in place; otherwise the flag/value pair is
// appended. Baseline order is preserved.
func ResolveArgs(baseline []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return baseline
	}

	result := slices.Clone(baseline)
	for _, flag := range []string{FlagStartDate, FlagEndDate} {
		value, ok := overrides[flag]
		if !ok {
			continue
		}
		idx := slices.Index(result, flag)
		if idx >= 0 && idx+1 < len(result) {
			result[idx+1] = value
		} else {
			result = append(result, flag, value)
		}
	}
	return result
}
