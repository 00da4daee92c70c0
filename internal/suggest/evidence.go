package suggest

import "sort"

// Evidence can come straight from a collector or back from its JSON
// encoding in the run history, so numbers may be int or float64, lists
// []string or []any, and maps typed or map[string]any.

func number(ev map[string]any, key string) (float64, bool) {
	switch v := ev[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func text(ev map[string]any, key string) string {
	s, _ := ev[key].(string)
	return s
}

func stringList(ev map[string]any, key string) []string {
	switch v := ev[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// falseKeys returns the sorted keys of a map[string]bool-like value whose
// value is false.
func falseKeys(ev map[string]any, key string) []string {
	var out []string
	switch v := ev[key].(type) {
	case map[string]bool:
		for k, ok := range v {
			if !ok {
				out = append(out, k)
			}
		}
	case map[string]any:
		for k, ok := range v {
			if b, _ := ok.(bool); !b {
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// counts returns a map[string]int-like value.
func counts(ev map[string]any, key string) map[string]int {
	out := map[string]int{}
	switch v := ev[key].(type) {
	case map[string]int:
		for k, n := range v {
			out[k] = n
		}
	case map[string]any:
		for k, n := range v {
			if f, ok := n.(float64); ok {
				out[k] = int(f)
			}
		}
	}
	return out
}
