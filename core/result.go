package core

import (
	"fmt"

	"github.com/neovim/go-client/msgpack"

	"github.com/snowduck/snowduck/host"
)

var ErrInvalidRange = func(from, to int) error { return fmt.Errorf("invalid selection range: %d ... %d", from, to) }

// Result is a fully materialized query result: the header and every row's
// converted cells in column order.
type Result struct {
	header Header
	rows   [][]any
}

func NewResult(header Header, rows [][]any) *Result {
	return &Result{
		header: header,
		rows:   rows,
	}
}

func (cr *Result) Format(formatter Formatter, mode Mode, from, to int) ([]byte, error) {
	rows, fromAdjusted, _, err := cr.getRows(from, to)
	if err != nil {
		return nil, fmt.Errorf("cr.getRows: %w", err)
	}

	opts := &FormatterOptions{
		Mode:       mode,
		ChunkStart: fromAdjusted,
	}

	f, err := formatter.Format(cr.header, rows, opts)
	if err != nil {
		return nil, fmt.Errorf("formatter.Format: %w", err)
	}

	return f, nil
}

func (cr *Result) Len() int {
	return len(cr.rows)
}

func (cr *Result) Header() Header {
	return cr.header
}

// Rows returns the rows in range from-to:
//
//	starts with 0
//	use negative number from the end
//	for example, to get all records use: from:0 to:-1
func (cr *Result) Rows(from, to int) ([][]any, error) {
	rows, _, _, err := cr.getRows(from, to)
	return rows, err
}

// getRows returns the row range and adjusted from-to values
func (cr *Result) getRows(from, to int) (rows [][]any, rangeFrom, rangeTo int, err error) {
	// validation
	if (from < 0 && to < 0) || (from >= 0 && to >= 0) {
		if from > to {
			return nil, 0, 0, ErrInvalidRange(from, to)
		}
	}
	// undefined -> error
	if from < 0 && to >= 0 {
		return nil, 0, 0, ErrInvalidRange(from, to)
	}

	// calculate range
	length := len(cr.rows)
	if from < 0 {
		from += length + 1
		if from < 0 {
			from = 0
		}
	}
	if to < 0 {
		to += length + 1
		if to < 0 {
			to = 0
		}
	}

	if from > length {
		from = length
	}
	if to > length {
		to = length
	}

	return cr.rows[from:to], from, to, nil
}

func (cr *Result) MarshalMsgPack(enc *msgpack.Encoder) error {
	rows := make([]any, len(cr.rows))
	for i := range cr.rows {
		rows[i] = cr.rows[i]
	}

	header := make([]any, len(cr.header))
	for i := range cr.header {
		header[i] = cr.header[i]
	}

	obj := host.NewObject(2)
	obj.Set("header", header)
	obj.Set("rows", rows)
	return obj.MarshalMsgPack(enc)
}
