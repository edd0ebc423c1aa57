package core

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/snowduck/snowduck/host"
)

type (
	// Adapter connects to an engine.
	Adapter interface {
		Connect(url string, opts *DriverOptions) (Driver, error)
	}

	// Driver is a single engine session.
	Driver interface {
		// Exec runs a single statement and returns the number of affected rows.
		Exec(ctx context.Context, query string) (int64, error)
		// ExecBatch runs zero or more statements and discards their results.
		ExecBatch(ctx context.Context, query string) error
		// Query runs a statement, reusing a prepared statement for identical
		// query text.
		Query(ctx context.Context, query string) (RowStream, error)
		Close() error
	}

	// StatsReporter is an optional interface for drivers with a statement cache.
	StatsReporter interface {
		Stats() CacheStats
	}

	CacheStats struct {
		// Prepared counts statement compilations.
		Prepared int
		Hits      int
		Evictions int
		Size      int
	}
)

// identifierPattern matches the bare names that are spliced into setup
// statements: secret and extension names.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type ConnectionID string

// Connection owns a single engine session. It is not meant for concurrent
// use: an operation started while another one (including an open Rows) is
// running fails with ErrConnectionBusy instead of waiting.
type Connection struct {
	id        ConnectionID
	config    *Config
	driver    Driver
	projector *Projector
	log       Logger

	// installed extensions, none without remote storage
	extensions []string

	guard  sync.Mutex
	closed atomic.Bool
}

// NewConnection connects through adapter and prepares the session: it
// installs the configured extensions and registers the object store secret.
// Every failure is returned as *Error.
func NewConnection(ctx context.Context, cfg *Config, adapter Adapter, opts ...Option) (*Connection, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	expanded := cfg.Expand()
	if o.remoteStorage {
		if err := expanded.Validate(); err != nil {
			return nil, NewError(KindConfig, err)
		}
		if !identifierPattern.MatchString(o.secretName) {
			return nil, NewError(KindConfig, ErrInvalidSecretName(o.secretName))
		}
		for _, ext := range o.extensions {
			if !identifierPattern.MatchString(ext) {
				return nil, NewError(KindConfig, ErrInvalidExtensionName(ext))
			}
		}
	}

	if o.id == "" {
		o.id = ConnectionID(uuid.New().String())
	}

	driver, err := adapter.Connect(o.url, &DriverOptions{
		StatementCacheSize: o.cacheSize,
		OnPrepare:          o.onPrepare,
		Logger:             o.logger,
	})
	if err != nil {
		return nil, NewError(KindEngineOpen, fmt.Errorf("adapter.Connect: %w", err))
	}

	c := &Connection{
		id:        o.id,
		config:    expanded,
		driver:    driver,
		projector: NewProjector(o.converter, o.indifferent),
		log:       o.logger,
	}

	if o.remoteStorage {
		c.extensions = slices.Clone(o.extensions)
		if err := c.setupRemoteStorage(ctx, o); err != nil {
			_ = driver.Close()
			return nil, err
		}
	}

	c.log.Infof("connection %s opened", c.id)
	return c, nil
}

func (c *Connection) setupRemoteStorage(ctx context.Context, o *options) error {
	for _, ext := range o.extensions {
		c.log.Debugf("installing extension %q", ext)
		if err := c.driver.ExecBatch(ctx, "INSTALL "+ext+";"); err != nil {
			return NewError(KindExtensionInstall, fmt.Errorf("install extension %q: %w", ext, err))
		}
	}

	c.log.Debugf("registering secret %q for region %q", o.secretName, c.config.Region)
	if err := c.driver.ExecBatch(ctx, secretStatement(o.secretName, c.config)); err != nil {
		return NewError(KindSecretRegistration, fmt.Errorf("create secret %q: %w", o.secretName, err))
	}
	return nil
}

func secretStatement(name string, cfg *Config) string {
	return fmt.Sprintf("CREATE SECRET %s (TYPE S3, KEY_ID %s, SECRET %s, REGION %s);",
		name,
		host.Quote(cfg.AccessKeyID),
		host.Quote(cfg.SecretAccessKey),
		host.Quote(cfg.Region),
	)
}

func (c *Connection) GetID() ConnectionID {
	return c.id
}

// Extensions returns the extensions installed when the connection was opened.
func (c *Connection) Extensions() []string {
	return slices.Clone(c.extensions)
}

// GetConfig returns the expanded config the connection was opened with.
func (c *Connection) GetConfig() *Config {
	return c.config
}

// acquire takes the session guard without waiting.
func (c *Connection) acquire() error {
	if c.closed.Load() {
		return NewError(KindClosed, ErrConnectionClosed)
	}
	if !c.guard.TryLock() {
		return NewError(KindBusy, ErrConnectionBusy)
	}
	if c.closed.Load() {
		c.guard.Unlock()
		return NewError(KindClosed, ErrConnectionClosed)
	}
	return nil
}

// Execute runs a single statement and returns the number of affected rows.
func (c *Connection) Execute(ctx context.Context, query string) (int64, error) {
	if err := c.acquire(); err != nil {
		return 0, err
	}
	defer c.guard.Unlock()

	affected, err := c.driver.Exec(ctx, query)
	if err != nil {
		return 0, NewError(KindQueryExecution, err)
	}
	return affected, nil
}

// ExecuteBatch runs zero or more statements without returning results.
func (c *Connection) ExecuteBatch(ctx context.Context, query string) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.guard.Unlock()

	if err := c.driver.ExecBatch(ctx, query); err != nil {
		return NewError(KindQueryExecution, err)
	}
	return nil
}

// Query runs query and returns an iterator over its rows. The connection stays
// busy until the returned Rows are closed.
//
// The statement is cached by its exact text. There are no bound parameters:
// values have to be inlined, see host.Literal.
func (c *Connection) Query(ctx context.Context, query string) (*Rows, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}

	stream, err := c.driver.Query(ctx, query)
	if err != nil {
		c.guard.Unlock()
		return nil, NewError(KindQueryExecution, err)
	}

	return newRows(stream, c.guard.Unlock), nil
}

// QueryRows materializes every row in array mode.
func (c *Connection) QueryRows(ctx context.Context, query string) ([]any, error) {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]any, 0)
	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return nil, err
		}

		projected, err := c.projector.Array(row)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

// QueryObjects materializes every row in object mode.
func (c *Connection) QueryObjects(ctx context.Context, query string) ([]host.Keyed, error) {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]host.Keyed, 0)
	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return nil, err
		}

		projected, err := c.projector.Object(row)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

// QueryResult materializes every row as converted cells, keeping the header.
func (c *Connection) QueryResult(ctx context.Context, query string) (*Result, error) {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([][]any, 0)
	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return nil, err
		}

		cells, err := c.projector.Cells(row)
		if err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return NewResult(rows.Header(), out), nil
}

// Stats reports statement cache counters.
func (c *Connection) Stats() CacheStats {
	reporter, ok := c.driver.(StatsReporter)
	if !ok {
		return CacheStats{}
	}
	return reporter.Stats()
}

// Close closes the session. It fails with ErrConnectionBusy while rows are
// still open.
func (c *Connection) Close() error {
	if err := c.acquire(); err != nil {
		if Translate(err).Kind == KindClosed {
			return nil
		}
		return err
	}
	defer c.guard.Unlock()

	c.closed.Store(true)
	if err := c.driver.Close(); err != nil {
		return NewError(KindQueryExecution, fmt.Errorf("driver.Close: %w", err))
	}

	c.log.Infof("connection %s closed", c.id)
	return nil
}
