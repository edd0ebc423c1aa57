//go:build cgo && ((darwin && (amd64 || arm64)) || (linux && (amd64 || arm64 || riscv64)))

package adapters

import (
	"database/sql"
	"fmt"

	"github.com/marcboeker/go-duckdb"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/core/builders"
	"github.com/snowduck/snowduck/value"
)

// Register client
func init() {
	_ = register(&Duck{}, "duck", "duckdb")
}

var _ core.Adapter = (*Duck)(nil)

type Duck struct{}

// Connect opens a DuckDB database. An empty url is an in-memory database.
func (d *Duck) Connect(url string, opts *core.DriverOptions) (core.Driver, error) {
	db, err := sql.Open("duckdb", url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to duckdb database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to connect to duckdb database: %w", err)
	}

	decoder := newDuckDecoder(normalizeDuck)

	return builders.NewClient(db,
		builders.WithDecoder(decoder.Decode),
		builders.WithDriverOptions(opts),
	), nil
}

// normalizeDuck replaces go-duckdb specific scan types.
func normalizeDuck(raw any) any {
	switch v := raw.(type) {
	case duckdb.Decimal:
		return value.Decimal{Unscaled: v.Value, Scale: v.Scale}
	case *duckdb.Decimal:
		if v == nil {
			return nil
		}
		return value.Decimal{Unscaled: v.Value, Scale: v.Scale}
	case duckdb.Interval:
		return value.Interval{Months: v.Months, Days: v.Days, Nanos: v.Micros * 1000}
	case duckdb.Map:
		return map[any]any(v)
	}
	return raw
}
