package builders

import (
	"sync"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/value"
)

var _ core.RowStream = (*Result)(nil)

// Result fills core.RowStream for all sql backed drivers
type Result struct {
	next     func() (value.Row, error)
	hasNext  func() bool
	close    func()
	callback func()
	header   core.Header
	once     sync.Once
}

func (r *Result) SetCustomHeader(header core.Header) {
	r.header = header
}

// SetCallback registers a function called once the result is closed.
func (r *Result) SetCallback(callback func()) {
	r.callback = callback
}

func (r *Result) Header() core.Header {
	return r.header
}

func (r *Result) HasNext() bool {
	return r.hasNext()
}

// Next returns the next row. An error closes the result.
func (r *Result) Next() (value.Row, error) {
	row, err := r.next()
	if err != nil || row == nil {
		r.Close()
		return nil, err
	}
	return row, nil
}

func (r *Result) Close() {
	r.once.Do(func() {
		r.close()
		if r.callback != nil {
			r.callback()
		}
	})
	r.hasNext = func() bool {
		return false
	}
}

// ResultBuilder builds the rows
type ResultBuilder struct {
	next    func() (value.Row, error)
	hasNext func() bool
	header  core.Header
	close   func()
}

func NewResultBuilder() *ResultBuilder {
	next, hasNext := NextNil()
	return &ResultBuilder{
		next:    next,
		hasNext: hasNext,
		header:  core.Header{},
		close:   func() {},
	}
}

func (b *ResultBuilder) WithNextFunc(fn func() (value.Row, error), has func() bool) *ResultBuilder {
	b.next = fn
	b.hasNext = has
	return b
}

func (b *ResultBuilder) WithHeader(header core.Header) *ResultBuilder {
	b.header = header
	return b
}

func (b *ResultBuilder) WithCloseFunc(fn func()) *ResultBuilder {
	b.close = fn
	return b
}

func (b *ResultBuilder) Build() *Result {
	return &Result{
		next:    b.next,
		hasNext: b.hasNext,
		header:  b.header,
		close:   b.close,
	}
}
