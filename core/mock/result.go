package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/value"
)

var ErrNoNextRow = errors.New("no next row")

func newNext(rows []value.Row, failAt int, failErr error) (func() (value.Row, error), func() bool) {
	index := 0

	hasNext := func() bool {
		return index < len(rows)
	}

	// iterator functions
	next := func() (value.Row, error) {
		if failErr != nil && index == failAt {
			return nil, failErr
		}
		if !hasNext() {
			return nil, ErrNoNextRow
		}

		row := rows[index]
		index++
		return row, nil
	}

	return next, hasNext
}

type ResultStream struct {
	next    func() (value.Row, error)
	hasNext func() bool
	config  *resultStreamConfig
	closed  bool
}

func makeDefaultHeader(rows []value.Row) core.Header {
	if len(rows) > 0 {
		return rows[0].Names()
	}
	return core.Header{}
}

// NewResultStream returns a mocked result stream with provided rows.
// The header is taken from the column names of the first row unless
// ResultStreamWithHeader is given.
func NewResultStream(rows []value.Row, opts ...ResultStreamOption) *ResultStream {
	config := &resultStreamConfig{
		nextSleep: 0,
		header:    makeDefaultHeader(rows),
	}
	for _, opt := range opts {
		opt(config)
	}

	next, hasNext := newNext(rows, config.failAt, config.failErr)

	return &ResultStream{
		next:    next,
		hasNext: hasNext,
		config:  config,
	}
}

func (rs *ResultStream) Header() core.Header {
	return rs.config.header
}

func (rs *ResultStream) Next() (value.Row, error) {
	time.Sleep(rs.config.nextSleep)
	return rs.next()
}

func (rs *ResultStream) HasNext() bool {
	return rs.hasNext()
}

func (rs *ResultStream) Close() {
	rs.closed = true
}

// Closed reports whether Close was called.
func (rs *ResultStream) Closed() bool {
	return rs.closed
}

// NewRows returns a slice of rows in form of:
//
//	{ id: <index>(Int64), name: "row_<index>"(Text) }
//
// where the first index is "from" and the last one is one less than "to".
func NewRows(from, to int) []value.Row {
	var rows []value.Row

	for i := from; i < to; i++ {
		rows = append(rows, value.Row{
			{Name: "id", Value: value.Int64(i)},
			{Name: "name", Value: value.Text(fmt.Sprintf("row_%d", i))},
		})
	}
	return rows
}
