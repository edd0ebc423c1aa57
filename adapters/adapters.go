// Package adapters registers engine adapters and opens connections through
// them.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/snowduck/snowduck/core"
)

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no driver registered for provided type alias")
)

// DefaultType is the adapter used by Open.
const DefaultType = "duckdb"

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
// The main reason is to be able to compile the binary without cgo, which the duckdb driver needs.
var registeredAdapters = make(map[string]core.Adapter)

// register registers a new adapter for specific database
func register(adapter core.Adapter, aliases ...string) error {
	if len(aliases) < 1 {
		return errNoValidTypeAliases
	}

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

// Mux is an interface to all internal adapters.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (core.Adapter, error) {
	adapter, ok := registeredAdapters[typ]
	if !ok {
		return nil, ErrUnsupportedTypeAlias
	}

	return adapter, nil
}

func (*Mux) AddAdapter(typ string, adapter core.Adapter) error {
	return register(adapter, typ)
}

// NewConnection is a wrapper around core.NewConnection that uses the internal mux for
// adapter registration.
func NewConnection(ctx context.Context, typ string, cfg *core.Config, opts ...core.Option) (*core.Connection, error) {
	adapter, err := new(Mux).GetAdapter(typ)
	if err != nil {
		return nil, core.NewError(core.KindEngineOpen, fmt.Errorf("Mux.GetAdapter: %w", err))
	}

	c, err := core.NewConnection(ctx, cfg, adapter, opts...)
	if err != nil {
		return nil, fmt.Errorf("core.NewConnection: %w", err)
	}

	return c, nil
}

// Open opens an in-memory DuckDB connection with object store access. Empty
// config fields fall back to the S3_DUCKDB_* environment variables.
func Open(ctx context.Context, cfg *core.Config, opts ...core.Option) (*core.Connection, error) {
	return NewConnection(ctx, DefaultType, cfg.Merge(core.ConfigFromEnv()), opts...)
}
