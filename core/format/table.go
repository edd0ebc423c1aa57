package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/snowduck/snowduck/core"
)

var _ core.Formatter = (*Table)(nil)

// Table renders rows as a borderless text table with a row number column.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(header core.Header, rows [][]any, opts *core.FormatterOptions) ([]byte, error) {
	tableHeaders := table.Row{""}
	for _, k := range header {
		tableHeaders = append(tableHeaders, k)
	}
	index := opts.ChunkStart

	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		indexedRow := table.Row{index + 1}
		for _, cell := range row {
			if cell == nil {
				indexedRow = append(indexedRow, "NULL")
				continue
			}
			indexedRow = append(indexedRow, cellText(cell))
		}
		tableRows = append(tableRows, indexedRow)
		index += 1
	}

	t := table.NewWriter()
	t.AppendHeader(tableHeaders)
	t.AppendRows(tableRows)
	t.AppendSeparator()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()
	render := t.Render()

	return []byte(render), nil
}
