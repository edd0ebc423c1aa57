package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/value"
)

var (
	_ core.Driver        = (*driver)(nil)
	_ core.StatsReporter = (*driver)(nil)
)

type driver struct {
	adapter *Adapter
}

func (d *driver) run(ctx context.Context, query string) error {
	d.adapter.record(query)

	eff, ok := d.adapter.config.querySideEffects[query]
	if ok {
		err := eff(ctx)
		if err != nil {
			return fmt.Errorf("side effect error: %w", err)
		}
	}
	return nil
}

func (d *driver) Exec(ctx context.Context, query string) (int64, error) {
	if err := d.run(ctx, query); err != nil {
		return 0, err
	}
	return d.adapter.config.affected, nil
}

func (d *driver) ExecBatch(ctx context.Context, query string) error {
	return d.run(ctx, query)
}

func (d *driver) Query(ctx context.Context, query string) (core.RowStream, error) {
	if err := d.run(ctx, query); err != nil {
		return nil, err
	}

	d.adapter.prepare(query)

	rows := d.adapter.data
	if r, ok := d.adapter.config.queryRows[query]; ok {
		rows = r
	}
	return NewResultStream(rows, d.adapter.config.resultStreamOptions...), nil
}

func (d *driver) Stats() core.CacheStats {
	d.adapter.mu.Lock()
	defer d.adapter.mu.Unlock()

	return core.CacheStats{
		Prepared: len(d.adapter.prepared),
		Hits:     d.adapter.hits,
		Size:     len(d.adapter.prepared),
	}
}

func (d *driver) Close() error {
	d.adapter.mu.Lock()
	defer d.adapter.mu.Unlock()

	d.adapter.closed = true
	return d.adapter.config.closeErr
}

var _ core.Adapter = (*Adapter)(nil)

// Adapter hands out in-memory drivers serving fixed rows. It records every
// statement the drivers receive.
type Adapter struct {
	data   []value.Row
	config *adapterConfig

	mu         sync.Mutex
	statements []string
	prepared   map[string]struct{}
	hits       int
	closed     bool
	options    *core.DriverOptions
}

func NewAdapter(data []value.Row, opts ...AdapterOption) *Adapter {
	config := &adapterConfig{
		querySideEffects: make(map[string]func(context.Context) error),
		queryRows:        make(map[string][]value.Row),

		resultStreamOptions: []ResultStreamOption{},
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Adapter{
		data:     data,
		config:   config,
		prepared: make(map[string]struct{}),
	}
}

func (a *Adapter) Connect(_ string, opts *core.DriverOptions) (core.Driver, error) {
	if a.config.connectErr != nil {
		return nil, a.config.connectErr
	}

	a.mu.Lock()
	a.options = opts
	a.mu.Unlock()

	return &driver{adapter: a}, nil
}

// Statements returns every statement received so far, in order.
func (a *Adapter) Statements() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, len(a.statements))
	copy(out, a.statements)
	return out
}

// Closed reports whether a driver was closed.
func (a *Adapter) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}

// DriverOptions returns the options of the last Connect call.
func (a *Adapter) DriverOptions() *core.DriverOptions {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.options
}

func (a *Adapter) record(query string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.statements = append(a.statements, query)
}

func (a *Adapter) prepare(query string) {
	a.mu.Lock()
	_, ok := a.prepared[query]
	if ok {
		a.hits++
	} else {
		a.prepared[query] = struct{}{}
	}
	opts := a.options
	a.mu.Unlock()

	if !ok && opts != nil && opts.OnPrepare != nil {
		opts.OnPrepare(query)
	}
}
