// Package testhelpers provides helpers for integration tests.
package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/adapters"
	"github.com/snowduck/snowduck/core"
)

// NewDuckDB opens an in-memory database without remote storage. The
// connection is closed when the test ends.
func NewDuckDB(t *testing.T, opts ...core.Option) *core.Connection {
	t.Helper()

	opts = append([]core.Option{core.WithoutRemoteStorage()}, opts...)
	conn, err := adapters.NewConnection(context.Background(), adapters.DefaultType, nil, opts...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// GetSchemas returns a list of schema names from the given structure.
func GetSchemas(t *testing.T, structure []*core.Structure) []string {
	t.Helper()

	schemas := make([]string, 0)
	for _, s := range structure {
		if s.Type == core.StructureTypeSchema {
			schemas = append(schemas, s.Name)
		}
	}
	return schemas
}

// GetModels returns a list of model names (views, table, etc) from the given structure.
func GetModels(t *testing.T, structure []*core.Structure, modelType core.StructureType) []string {
	t.Helper()

	out := make([]string, 0)
	for _, s := range structure {
		for _, c := range s.Children {
			if c.Type == modelType {
				out = append(out, c.Name)
			}
		}
	}
	return out
}
