package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/core/mock"
	"github.com/snowduck/snowduck/schema"
)

func newInitializer(t *testing.T, db *schema.Database, adapterOpts []mock.AdapterOption, opts ...schema.Option) (*schema.Initializer, *mock.Adapter) {
	t.Helper()

	adapter := mock.NewAdapter(nil, adapterOpts...)
	conn, err := core.NewConnection(context.Background(), nil, adapter, core.WithoutRemoteStorage())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return schema.NewInitializer(db, conn, opts...), adapter
}

func TestInitializer_Initialize(t *testing.T) {
	ctx := context.Background()
	in, adapter := newInitializer(t, lake(t), nil)

	require.NoError(t, in.Initialize(ctx, "report"))
	assert.Equal(t, []string{
		`LOAD aws; LOAD httpfs; CREATE OR REPLACE TABLE "users" AS SELECT * FROM read_parquet('s3://lake/users.parquet');`,
		`LOAD aws; LOAD httpfs; CREATE OR REPLACE TABLE "orders" AS SELECT * FROM read_parquet('s3://lake/orders.parquet');`,
		`CREATE OR REPLACE TABLE "joined" AS (SELECT * FROM users JOIN orders USING (user_id));`,
		`CREATE OR REPLACE VIEW "report" AS (SELECT * FROM joined);`,
	}, adapter.Statements())
	assert.Equal(t, []string{"users", "orders", "joined", "report"}, in.Initialized())

	// ancestors that exist already are not created again
	require.NoError(t, in.Initialize(ctx, "totals", "users"))
	statements := adapter.Statements()
	require.Len(t, statements, 5)
	assert.Equal(t, `CREATE OR REPLACE TABLE "totals" AS (SELECT sum(amount) FROM orders);`, statements[4])
	assert.Equal(t, []string{"users", "orders", "joined", "report", "totals"}, in.Initialized())
}

func TestInitializer_UnknownTable(t *testing.T) {
	in, adapter := newInitializer(t, lake(t), nil)

	err := in.Initialize(context.Background(), "users", "nope")
	require.Error(t, err)
	assert.Equal(t, core.KindConfig, core.Translate(err).Kind)
	assert.Empty(t, adapter.Statements())
	assert.Empty(t, in.Initialized())
}

func TestInitializer_LocalCSV(t *testing.T) {
	t.Setenv("SNOWDUCK_TEST_DIR", "/data")

	db, err := schema.NewDatabase(schema.Definition{
		Name: "people",
		Source: &schema.Source{
			Location: `{{ env "SNOWDUCK_TEST_DIR" }}/people.csv`,
			Format:   schema.FormatCSV,
			Columns: []schema.Column{
				{Name: "id", Type: "INTEGER"},
				{Name: "first name", Type: "VARCHAR"},
			},
		},
	})
	require.NoError(t, err)

	in, adapter := newInitializer(t, db, nil)
	require.NoError(t, in.Initialize(context.Background(), "people"))

	// local files need no extensions
	assert.Equal(t, []string{
		`CREATE OR REPLACE TABLE "people" AS SELECT * FROM read_csv('/data/people.csv', types = {'id': 'INTEGER', 'first name': 'VARCHAR'});`,
	}, adapter.Statements())
}

func TestInitializer_MissingSourceWithColumns(t *testing.T) {
	read := `LOAD httpfs; CREATE OR REPLACE TABLE "events" AS SELECT * FROM read_parquet('https://lake.example.com/events.parquet');`

	db, err := schema.NewDatabase(schema.Definition{
		Name: "events",
		Source: &schema.Source{
			Location: "https://lake.example.com/events.parquet",
			Columns:  []schema.Column{{Name: "id", Type: "BIGINT"}, {Name: "at", Type: "TIMESTAMP"}},
		},
	})
	require.NoError(t, err)

	in, adapter := newInitializer(t, db, []mock.AdapterOption{
		mock.AdapterWithQuerySideEffect(read, func(context.Context) error {
			return errors.New("HTTP Error: Unable to connect to URL: 404 (Not Found)")
		}),
	}, schema.WithExtensions("httpfs"))

	require.NoError(t, in.Initialize(context.Background(), "events"))
	assert.Equal(t, []string{
		read,
		`CREATE OR REPLACE TABLE "events" ("id" BIGINT, "at" TIMESTAMP);`,
	}, adapter.Statements())
	assert.Equal(t, []string{"events"}, in.Initialized())
}

func TestInitializer_MissingSourceWithoutColumns(t *testing.T) {
	read := `CREATE OR REPLACE TABLE "events" AS SELECT * FROM read_parquet('/data/events.parquet');`

	db, err := schema.NewDatabase(source("events", "/data/events.parquet"))
	require.NoError(t, err)

	in, adapter := newInitializer(t, db, []mock.AdapterOption{
		mock.AdapterWithQuerySideEffect(read, func(context.Context) error {
			return errors.New(`IO Error: No files found that match the pattern "/data/events.parquet"`)
		}),
	})

	err = in.Initialize(context.Background(), "events")
	require.Error(t, err)
	assert.ErrorContains(t, err, `initialize table "events"`)
	assert.ErrorContains(t, err, "No files found")
	assert.Equal(t, []string{read}, adapter.Statements())
	assert.Empty(t, in.Initialized())
}

func TestInitializer_Dump(t *testing.T) {
	ctx := context.Background()
	in, adapter := newInitializer(t, lake(t), nil, schema.WithExtensions())

	require.NoError(t, in.Initialize(ctx, "totals"))
	require.NoError(t, in.Initialize(ctx, "joined"))
	before := len(adapter.Statements())

	require.NoError(t, in.Dump(ctx, "lake.duckdb"))
	assert.Equal(t, []string{
		`ATTACH 'lake.duckdb' AS file_dump_database;`,
		`CREATE TABLE file_dump_database."orders" AS SELECT * FROM "orders";`,
		`CREATE TABLE file_dump_database."totals" AS SELECT * FROM "totals";`,
		`CREATE TABLE file_dump_database."users" AS SELECT * FROM "users";`,
		`CREATE TABLE file_dump_database."joined" AS SELECT * FROM "joined";`,
		`DETACH file_dump_database;`,
	}, adapter.Statements()[before:])
}

func TestInitializer_Drop(t *testing.T) {
	ctx := context.Background()
	in, adapter := newInitializer(t, lake(t), nil, schema.WithExtensions())

	require.NoError(t, in.Initialize(ctx, "report"))
	require.NoError(t, in.Drop(ctx, "report"))
	require.NoError(t, in.Drop(ctx, "users"))
	assert.Equal(t, []string{"orders", "joined"}, in.Initialized())

	statements := adapter.Statements()
	assert.Equal(t, `DROP VIEW IF EXISTS "report";`, statements[len(statements)-2])
	assert.Equal(t, `DROP TABLE IF EXISTS "users";`, statements[len(statements)-1])

	require.NoError(t, in.Initialize(ctx, "report"))
	assert.Equal(t, []string{"orders", "joined", "users", "report"}, in.Initialized())

	in.Forget()
	assert.Empty(t, in.Initialized())

	err := in.Drop(ctx, "nope")
	assert.Equal(t, core.KindConfig, core.Translate(err).Kind)
}

func TestInitializer_Redefine(t *testing.T) {
	ctx := context.Background()
	in, adapter := newInitializer(t, lake(t), nil, schema.WithExtensions())
	require.NoError(t, in.Initialize(ctx, "totals", "users"))

	db, err := schema.NewDatabase(
		source("users", "s3://lake/users.parquet"),
		source("orders", "s3://lake/orders.parquet"),
		derived("totals", "SELECT count(*) FROM orders", "orders"),
	)
	require.NoError(t, err)

	next := in.Redefine(db)
	assert.Equal(t, []string{"orders", "users"}, next.Initialized())
	assert.Same(t, db, next.Database())

	before := len(adapter.Statements())
	require.NoError(t, next.Initialize(ctx, "totals"))
	assert.Equal(t, []string{
		`CREATE OR REPLACE TABLE "totals" AS (SELECT count(*) FROM orders);`,
	}, adapter.Statements()[before:])
}
