package main

import (
	"context"
	"io"
	"testing"

	"github.com/neovim/go-client/msgpack/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/core/mock"
	"github.com/snowduck/snowduck/handler"
	"github.com/snowduck/snowduck/plugin"
)

type closers []io.Closer

func (cs closers) Close() error {
	for _, c := range cs {
		_ = c.Close()
	}
	return nil
}

func newClient(t *testing.T, adapter *mock.Adapter) *rpc.Endpoint {
	t.Helper()

	serverR, clientW := io.Pipe()
	clientR, serverW := io.Pipe()

	p, err := plugin.New(serverR, serverW, closers{serverR, serverW}, nil)
	require.NoError(t, err)

	h := handler.New(nil, handler.WithOpener(func(ctx context.Context, cfg *core.Config, opts ...core.Option) (*core.Connection, error) {
		return core.NewConnection(ctx, cfg, adapter, opts...)
	}))
	require.NoError(t, mountEndpoints(context.Background(), p, h))
	go func() { _ = p.Serve() }()

	client, err := rpc.NewEndpoint(clientR, clientW, closers{clientR, clientW})
	require.NoError(t, err)
	go func() { _ = client.Serve() }()

	t.Cleanup(func() {
		_ = client.Close()
		_ = p.Close()
		_ = h.Close()
	})
	return client
}

func TestEndpoints(t *testing.T) {
	adapter := mock.NewAdapter(mock.NewRows(0, 2))
	client := newClient(t, adapter)

	var id string
	require.NoError(t, client.Call("SnowduckOpen", &id, map[string]any{"id": "lake", "local_only": true}))
	assert.Equal(t, "lake", id)

	var rows []any
	require.NoError(t, client.Call("SnowduckQueryRows", &rows, id, "SELECT id, name FROM ducks"))
	require.Len(t, rows, 2)
	row, ok := rows[1].([]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, row[0])
	assert.Equal(t, "row_1", row[1])

	var text string
	require.NoError(t, client.Call("SnowduckFormat", &text, id, "SELECT id, name FROM ducks", map[string]any{"format": "csv"}))
	assert.Equal(t, "id,name\n0,row_0\n1,row_1\n", text)

	var ignored any
	err := client.Call("SnowduckDrop", &ignored, id, "", "ducks", "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: unknown object kind")

	err = client.Call("SnowduckOpen", &ignored, map[string]any{"id": 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")

	require.NoError(t, client.Call("SnowduckClose", &ignored, id))
	err = client.Call("SnowduckExecute", &ignored, id, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed: unknown connection")
}

func TestEndpointsTables(t *testing.T) {
	adapter := mock.NewAdapter(nil)
	client := newClient(t, adapter)

	var id string
	require.NoError(t, client.Call("SnowduckOpen", &id, map[string]any{"id": "lake", "local_only": true}))

	var ignored any
	require.NoError(t, client.Call("SnowduckDefine", &ignored, id, []map[string]any{
		{"name": "events", "location": "/data/events.csv", "format": "csv", "columns": []string{"id INTEGER"}},
		{"name": "daily", "query": "SELECT count(*) FROM events", "depends_on": []string{"events"}},
	}))
	require.NoError(t, client.Call("SnowduckInitialize", &ignored, id, []string{"daily"}))

	var initialized []string
	require.NoError(t, client.Call("SnowduckInitialized", &initialized, id))
	assert.Equal(t, []string{"events", "daily"}, initialized)

	var graph string
	require.NoError(t, client.Call("SnowduckGraph", &graph, id, "text"))
	assert.Equal(t, "Table Dependencies:\n\nevents has no dependencies.\ndaily depends on: events\n", graph)

	require.NoError(t, client.Call("SnowduckDumpInitialized", &ignored, id, "lake.duckdb"))
	statements := adapter.Statements()
	assert.Equal(t, `CREATE TABLE file_dump_database."daily" AS SELECT * FROM "daily";`, statements[len(statements)-2])

	err := client.Call("SnowduckDefine", &ignored, id, []map[string]any{{"query": "SELECT 1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}
