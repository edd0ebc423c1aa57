package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/snowduck/snowduck/core"
)

var _ core.Formatter = (*CSV)(nil)

// CSV writes the header followed by one record per row. NULL is an empty
// field.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) records(header core.Header, rows [][]any) [][]string {
	data := [][]string{
		header,
	}
	for _, row := range rows {
		csvRow := make([]string, len(row))
		for i, rec := range row {
			csvRow[i] = cellText(rec)
		}
		data = append(data, csvRow)
	}

	return data
}

func (cf *CSV) Format(header core.Header, rows [][]any, _ *core.FormatterOptions) ([]byte, error) {
	// the header is written in either mode
	data := cf.records(header, rows)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	err := w.WriteAll(data)
	if err != nil {
		return nil, fmt.Errorf("w.WriteAll: %w", err)
	}

	return b.Bytes(), nil
}
