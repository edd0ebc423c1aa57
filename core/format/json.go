package format

import (
	"encoding/json"
	"fmt"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/host"
)

var _ core.Formatter = (*JSON)(nil)

type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

// objects keeps column order and repeated column names.
func (jf *JSON) objects(header core.Header, rows [][]any) []any {
	data := make([]any, 0, len(rows))

	for _, row := range rows {
		record := host.NewObject(len(row))
		for i, val := range row {
			var h string
			if i < len(header) {
				h = header[i]
			} else {
				h = fmt.Sprintf("<unknown-field-%d>", i)
			}
			record.Set(h, val)
		}
		data = append(data, record)
	}

	return data
}

func (jf *JSON) arrays(rows [][]any) []any {
	data := make([]any, 0, len(rows))

	for _, row := range rows {
		if len(row) == 1 {
			data = append(data, host.JSONValue(row[0]))
		} else if len(row) > 1 {
			data = append(data, host.JSONValue(row))
		}
	}
	return data
}

func (jf *JSON) Format(header core.Header, rows [][]any, opts *core.FormatterOptions) ([]byte, error) {
	var data any
	switch opts.Mode {
	case core.ModeArray:
		data = jf.arrays(rows)
	case core.ModeObject:
		fallthrough
	default:
		data = jf.objects(header, rows)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}

	return out, nil
}
