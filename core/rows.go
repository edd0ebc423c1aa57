package core

import (
	"sync"

	"github.com/snowduck/snowduck/value"
)

// Rows iterates over a query result. The owning connection stays busy until
// Close is called; closing twice is fine.
type Rows struct {
	stream  RowStream
	release func()
	once    sync.Once
}

func newRows(stream RowStream, release func()) *Rows {
	return &Rows{
		stream:  stream,
		release: release,
	}
}

func (r *Rows) Header() Header {
	return r.stream.Header()
}

func (r *Rows) HasNext() bool {
	return r.stream.HasNext()
}

// Next returns the next raw row. Errors are *Error.
func (r *Rows) Next() (value.Row, error) {
	row, err := r.stream.Next()
	if err != nil {
		return nil, Translate(err)
	}
	return row, nil
}

func (r *Rows) Close() {
	r.once.Do(func() {
		r.stream.Close()
		r.release()
	})
}
