package format

import (
	"encoding/json"

	"github.com/snowduck/snowduck/host"
)

// cellText renders a converted cell for text outputs. Containers are written
// as JSON.
func cellText(v any) string {
	switch v.(type) {
	case []any, host.Keyed:
		out, err := json.Marshal(host.JSONValue(v))
		if err != nil {
			return host.KeyString(v)
		}
		return string(out)
	case float64:
		out, err := json.Marshal(v)
		if err != nil {
			// NaN and infinities
			return host.KeyString(v)
		}
		return string(out)
	}
	return host.KeyString(v)
}
