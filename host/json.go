package host

// JSONValue returns v in a form encoding/json renders faithfully: symbols and
// durations become plain strings and numbers, tagged values become
// {"tag": ..., "value": ...} and arrays are rewritten recursively.
func JSONValue(v any) any {
	switch t := v.(type) {
	case Symbol:
		return string(t)
	case Duration:
		return int64(t)
	case Tagged:
		return struct {
			Tag   string `json:"tag"`
			Value any    `json:"value"`
		}{
			Tag:   t.Tag,
			Value: JSONValue(t.Value),
		}
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = JSONValue(t[i])
		}
		return out
	default:
		return v
	}
}
