package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/core/mock"
	"github.com/snowduck/snowduck/host"
	"github.com/snowduck/snowduck/value"
)

func testConfig() *core.Config {
	return &core.Config{
		Region:          "eu-central-1",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "it's secret",
	}
}

func TestNewConnection_Setup(t *testing.T) {
	adapter := mock.NewAdapter(nil)

	conn, err := core.NewConnection(context.Background(), testConfig(), adapter)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, []string{
		"INSTALL aws;",
		"INSTALL httpfs;",
		"CREATE SECRET aws_bucket_secrets (TYPE S3, KEY_ID 'AKIA', SECRET 'it''s secret', REGION 'eu-central-1');",
	}, adapter.Statements())

	assert.NotEmpty(t, conn.GetID())
	assert.Equal(t, core.DefaultStatementCacheSize, adapter.DriverOptions().StatementCacheSize)
	assert.Equal(t, []string{"aws", "httpfs"}, conn.Extensions())
}

func TestNewConnection_Errors(t *testing.T) {
	boom := errors.New("boom")

	testCases := []struct {
		name     string
		config   *core.Config
		adapter  *mock.Adapter
		opts     []core.Option
		expected core.ErrorKind
	}{
		{
			name:     "missing credentials",
			config:   &core.Config{Region: "eu-central-1"},
			adapter:  mock.NewAdapter(nil),
			expected: core.KindConfig,
		},
		{
			name:     "invalid secret name",
			config:   testConfig(),
			adapter:  mock.NewAdapter(nil),
			opts:     []core.Option{core.WithSecretName("bad name;")},
			expected: core.KindConfig,
		},
		{
			name:     "invalid extension name",
			config:   testConfig(),
			adapter:  mock.NewAdapter(nil),
			opts:     []core.Option{core.WithExtensions("httpfs; DROP TABLE users")},
			expected: core.KindConfig,
		},
		{
			name:     "engine open",
			config:   testConfig(),
			adapter:  mock.NewAdapter(nil, mock.AdapterWithConnectError(boom)),
			expected: core.KindEngineOpen,
		},
		{
			name:   "extension install",
			config: testConfig(),
			adapter: mock.NewAdapter(nil, mock.AdapterWithQuerySideEffect("INSTALL httpfs;", func(context.Context) error {
				return boom
			})),
			expected: core.KindExtensionInstall,
		},
		{
			name:   "secret registration",
			config: testConfig(),
			adapter: mock.NewAdapter(nil, mock.AdapterWithQuerySideEffect(
				"CREATE SECRET aws_bucket_secrets (TYPE S3, KEY_ID 'AKIA', SECRET 'it''s secret', REGION 'eu-central-1');",
				func(context.Context) error { return boom },
			)),
			expected: core.KindSecretRegistration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conn, err := core.NewConnection(context.Background(), tc.config, tc.adapter, tc.opts...)
			require.Error(t, err)
			assert.Nil(t, conn)

			var e *core.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.expected, e.Kind)
			assert.NotContains(t, err.Error(), "it''s secret")
		})
	}
}

func TestNewConnection_FailedSetupClosesDriver(t *testing.T) {
	adapter := mock.NewAdapter(nil, mock.AdapterWithQuerySideEffect("INSTALL aws;", func(context.Context) error {
		return errors.New("offline")
	}))

	_, err := core.NewConnection(context.Background(), testConfig(), adapter)
	require.Error(t, err)
	assert.True(t, adapter.Closed())
}

func TestNewConnection_InvalidExtensionSkipsEngine(t *testing.T) {
	adapter := mock.NewAdapter(nil)

	_, err := core.NewConnection(context.Background(), testConfig(), adapter, core.WithExtensions("aws", "http fs"))
	require.Error(t, err)
	assert.ErrorContains(t, err, `invalid extension name "http fs"`)
	assert.Empty(t, adapter.Statements())
	assert.Nil(t, adapter.DriverOptions())
}

func TestNewConnection_WithoutRemoteStorage(t *testing.T) {
	adapter := mock.NewAdapter(nil)

	conn, err := core.NewConnection(context.Background(), nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)
	defer conn.Close()

	assert.Empty(t, adapter.Statements())
	assert.Empty(t, conn.Extensions())
}

func TestConnection_QueryRows(t *testing.T) {
	ctx := context.Background()
	adapter := mock.NewAdapter(mock.NewRows(0, 3),
		mock.AdapterWithQueryRows("SELECT 1", []value.Row{{{Name: "1", Value: value.Int32(1)}}}),
	)

	conn, err := core.NewConnection(ctx, nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)
	defer conn.Close()

	single, err := conn.QueryRows(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, single)

	rows, err := conn.QueryRows(ctx, "SELECT id, name FROM t")
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{int64(0), "row_0"},
		[]any{int64(1), "row_1"},
		[]any{int64(2), "row_2"},
	}, rows)
}

func TestConnection_QueryObjects(t *testing.T) {
	ctx := context.Background()
	adapter := mock.NewAdapter(mock.NewRows(5, 7))

	conn, err := core.NewConnection(ctx, nil, adapter, core.WithoutRemoteStorage(), core.WithIndifferentAccess(true))
	require.NoError(t, err)
	defer conn.Close()

	objects, err := conn.QueryObjects(ctx, "SELECT id, name FROM t")
	require.NoError(t, err)
	require.Len(t, objects, 2)

	name, ok := objects[1].Get("name")
	assert.True(t, ok)
	assert.Equal(t, "row_6", name)

	id, ok := objects[0].Get(host.Symbol("id"))
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}

func TestConnection_EmptyResult(t *testing.T) {
	ctx := context.Background()
	conn, err := core.NewConnection(ctx, nil, mock.NewAdapter(nil), core.WithoutRemoteStorage())
	require.NoError(t, err)
	defer conn.Close()

	rows, err := conn.QueryRows(ctx, "SELECT * FROM empty")
	require.NoError(t, err)
	assert.Equal(t, []any{}, rows)

	objects, err := conn.QueryObjects(ctx, "SELECT * FROM empty")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestConnection_BusyWhileIterating(t *testing.T) {
	ctx := context.Background()
	adapter := mock.NewAdapter(mock.NewRows(0, 2))

	conn, err := core.NewConnection(ctx, nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)

	rows, err := conn.Query(ctx, "SELECT id, name FROM t")
	require.NoError(t, err)

	_, err = conn.Execute(ctx, "DELETE FROM t")
	assert.ErrorIs(t, err, core.ErrConnectionBusy)

	err = conn.Close()
	assert.ErrorIs(t, err, core.ErrConnectionBusy)

	rows.Close()
	rows.Close()

	_, err = conn.Execute(ctx, "DELETE FROM t")
	assert.NoError(t, err)

	require.NoError(t, conn.Close())
	assert.True(t, adapter.Closed())

	_, err = conn.QueryRows(ctx, "SELECT 1")
	var e *core.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, core.KindClosed, e.Kind)

	// closing twice is fine
	assert.NoError(t, conn.Close())
}

func TestConnection_Execute(t *testing.T) {
	ctx := context.Background()
	adapter := mock.NewAdapter(nil,
		mock.AdapterWithAffectedRows(3),
		mock.AdapterWithQuerySideEffect("DROP TABLE missing", func(context.Context) error {
			return errors.New("Catalog Error: Table with name missing does not exist!")
		}),
	)

	conn, err := core.NewConnection(ctx, nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)
	defer conn.Close()

	affected, err := conn.Execute(ctx, "UPDATE t SET a = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	require.NoError(t, conn.ExecuteBatch(ctx, "CREATE TABLE a (x INT); CREATE TABLE b (y INT);"))

	_, err = conn.Execute(ctx, "DROP TABLE missing")
	var e *core.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, core.KindQueryExecution, e.Kind)
	assert.Contains(t, err.Error(), "does not exist")

	// the connection is usable after a failure
	_, err = conn.Execute(ctx, "UPDATE t SET a = 2")
	assert.NoError(t, err)
}

func TestConnection_RowErrorAbortsMaterialization(t *testing.T) {
	ctx := context.Background()
	adapter := mock.NewAdapter(mock.NewRows(0, 3),
		mock.AdapterWithResultStreamOpts(mock.ResultStreamWithNextError(1, core.NewColumnError("name", errors.New("bad utf-8")))),
	)

	conn, err := core.NewConnection(ctx, nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.QueryRows(ctx, "SELECT id, name FROM t")
	var e *core.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, core.KindColumnConversion, e.Kind)
	assert.Equal(t, "name", e.Column)

	// the lock was released
	_, err = conn.QueryRows(ctx, "SELECT id, name FROM t")
	assert.Error(t, err)
	_, err = conn.Execute(ctx, "SELECT 1")
	assert.NoError(t, err)
}

func TestConnection_StatementReuse(t *testing.T) {
	ctx := context.Background()

	var prepared []string
	adapter := mock.NewAdapter(mock.NewRows(0, 1))
	conn, err := core.NewConnection(ctx, nil, adapter,
		core.WithoutRemoteStorage(),
		core.WithOnPrepare(func(q string) { prepared = append(prepared, q) }),
	)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		_, err := conn.QueryRows(ctx, "SELECT id, name FROM t")
		require.NoError(t, err)
	}
	_, err = conn.QueryRows(ctx, "SELECT id, name FROM t ")
	require.NoError(t, err)

	assert.Equal(t, []string{"SELECT id, name FROM t", "SELECT id, name FROM t "}, prepared)

	stats := conn.Stats()
	assert.Equal(t, 2, stats.Prepared)
	assert.Equal(t, 2, stats.Hits)
}

func TestConnection_CloseError(t *testing.T) {
	adapter := mock.NewAdapter(nil, mock.AdapterWithCloseError(errors.New("database is locked")))

	conn, err := core.NewConnection(context.Background(), nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)

	err = conn.Close()
	var e *core.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, core.KindQueryExecution, e.Kind)
	assert.ErrorContains(t, err, "database is locked")

	// the connection is gone either way
	_, err = conn.QueryRows(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, core.ErrConnectionClosed)
}

func TestConnection_QueryResult(t *testing.T) {
	ctx := context.Background()
	conn, err := core.NewConnection(ctx, nil, mock.NewAdapter(mock.NewRows(0, 10)), core.WithoutRemoteStorage())
	require.NoError(t, err)
	defer conn.Close()

	result, err := conn.QueryResult(ctx, "SELECT id, name FROM t")
	require.NoError(t, err)

	assert.Equal(t, core.Header{"id", "name"}, result.Header())
	assert.Equal(t, 10, result.Len())

	rows, err := result.Rows(-4, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(7), "row_7"}, {int64(8), "row_8"}, {int64(9), "row_9"}}, rows)

	_, err = result.Rows(-1, 2)
	assert.Error(t, err)
}
