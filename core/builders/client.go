package builders

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/internal/cache"
	"github.com/snowduck/snowduck/value"
)

var _ interface {
	core.Driver
	core.StatsReporter
} = (*Client)(nil)

// Client is a database/sql backed core.Driver. All statements run on a single
// pinned session, so session state (installed extensions, secrets, temp
// tables) is shared between calls.
type Client struct {
	db      *sql.DB
	decoder Decoder
	log     core.Logger

	mu         sync.Mutex
	conn       *sql.Conn
	statements *cache.LRU[string, *sql.Stmt]
	prepared   int
	onPrepare  func(query string)
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		decoder: func(raw any, _ string) (value.Value, error) {
			return value.FromGo(raw)
		},
		cacheSize: core.DefaultStatementCacheSize,
		log:       core.NopLogger{},
	}
	for _, opt := range opts {
		opt(&config)
	}

	c := &Client{
		db:        db,
		decoder:   config.decoder,
		log:       config.log,
		onPrepare: config.onPrepare,
	}
	c.statements = cache.New(config.cacheSize, func(query string, stmt *sql.Stmt) {
		c.log.Debugf("closing cached statement: %s", query)
		_ = stmt.Close()
	})

	return c
}

// session returns the pinned connection, opening it on first use.
func (c *Client) session(ctx context.Context) (*sql.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("db.Conn: %w", err)
	}
	c.conn = conn
	return conn, nil
}

// Exec executes a query and returns the number of affected rows.
func (c *Client) Exec(ctx context.Context, query string) (int64, error) {
	conn, err := c.session(ctx)
	if err != nil {
		return 0, err
	}

	res, err := conn.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("res.RowsAffected: %w", err)
	}
	return affected, nil
}

// ExecBatch executes one or more statements, discarding their results.
func (c *Client) ExecBatch(ctx context.Context, query string) error {
	conn, err := c.session(ctx)
	if err != nil {
		return err
	}

	_, err = conn.ExecContext(ctx, query)
	return err
}

// statement returns the prepared statement for query, compiling it if it is
// not cached.
func (c *Client) statement(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := c.statements.Get(query); ok {
		return stmt, nil
	}

	conn, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, core.NewError(core.KindStatementPrepare, err)
	}

	c.mu.Lock()
	c.prepared++
	c.mu.Unlock()

	c.log.Debugf("prepared statement: %s", query)
	if c.onPrepare != nil {
		c.onPrepare(query)
	}

	c.statements.Add(query, stmt)
	return stmt, nil
}

// Query executes a cached statement and returns a stream of decoded rows.
func (c *Client) Query(ctx context.Context, query string) (core.RowStream, error) {
	stmt, err := c.statement(ctx, query)
	if err != nil {
		return nil, err
	}

	dbRows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	header, err := dbRows.Columns()
	if err != nil {
		_ = dbRows.Close()
		return nil, fmt.Errorf("rows.Columns: %w", err)
	}

	if len(header) == 0 {
		_ = dbRows.Close()
		return NewResultBuilder().
			WithNextFunc(NextNil()).
			Build(), nil
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, fmt.Errorf("rows.ColumnTypes: %w", err)
	}

	typeNames := make([]string, len(dbCols))
	for i := range dbCols {
		typeNames[i] = dbCols[i].DatabaseTypeName()
	}

	rows := NewResultBuilder().
		WithNextFunc(NextSQL(dbRows, header, typeNames, c.decoder)).
		WithHeader(header).
		WithCloseFunc(func() {
			_ = dbRows.Close()
		}).
		Build()

	return rows, nil
}

func (c *Client) Stats() core.CacheStats {
	s := c.statements.Stats()

	c.mu.Lock()
	defer c.mu.Unlock()

	return core.CacheStats{
		Prepared:  c.prepared,
		Hits:      s.Hits,
		Evictions: s.Evictions,
		Size:      s.Size,
	}
}

// Close closes every cached statement, the session and the database.
func (c *Client) Close() error {
	c.statements.Clear()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			_ = c.db.Close()
			return fmt.Errorf("conn.Close: %w", err)
		}
		c.conn = nil
	}

	return c.db.Close()
}
