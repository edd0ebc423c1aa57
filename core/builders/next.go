package builders

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/value"
)

var ErrNoNextRow = errors.New("no next row")

// NextNil creates next and hasNext functions that don't return anything (no rows)
func NextNil() (func() (value.Row, error), func() bool) {
	hasNext := func() bool {
		return false
	}

	// iterator functions
	next := func() (value.Row, error) {
		return nil, ErrNoNextRow
	}

	return next, hasNext
}

// NextSQL creates next and hasNext functions over database rows. Every cell
// is run through decode with its column's type name; a failing cell aborts
// the row with a column error. Iteration errors reported by the driver are
// returned by the following call to next.
func NextSQL(dbRows *sql.Rows, header core.Header, typeNames []string, decode Decoder) (func() (value.Row, error), func() bool) {
	var (
		pending  error
		advanced bool
	)

	hasNext := func() bool {
		if advanced {
			return true
		}
		if pending != nil {
			return true
		}
		if dbRows.Next() {
			advanced = true
			return true
		}
		if err := dbRows.Err(); err != nil {
			pending = err
			return true
		}
		return false
	}

	next := func() (value.Row, error) {
		if !hasNext() {
			return nil, ErrNoNextRow
		}
		if pending != nil {
			err := pending
			pending = nil
			return nil, err
		}
		advanced = false

		columns := make([]any, len(header))
		columnPointers := make([]any, len(header))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := dbRows.Scan(columnPointers...); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		row := make(value.Row, len(header))
		for i := range header {
			val, err := decode(columns[i], typeNames[i])
			if err != nil {
				return nil, core.NewColumnError(header[i], err)
			}
			row[i] = value.Cell{Name: header[i], Value: val}
		}

		return row, nil
	}

	return next, hasNext
}
