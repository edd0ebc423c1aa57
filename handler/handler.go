// Package handler keeps the connections opened by a host and runs host
// requests against them.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/snowduck/snowduck/adapters"
	"github.com/snowduck/snowduck/catalog"
	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/core/format"
	"github.com/snowduck/snowduck/host"
	"github.com/snowduck/snowduck/schema"
)

var (
	ErrUnknownConnection = func(id core.ConnectionID) error { return fmt.Errorf("unknown connection with id: %q", id) }
	ErrUnknownFormat     = func(f string) error { return fmt.Errorf("store output: format %q is not supported", f) }
	ErrUnknownOutput     = func(o string) error { return fmt.Errorf("store output: %q is not supported", o) }
	ErrNoOutputPath      = errors.New("no output path provided")
)

// Opener opens a connection. adapters.Open is used unless replaced.
type Opener func(ctx context.Context, cfg *core.Config, opts ...core.Option) (*core.Connection, error)

type Option func(*Handler)

func WithOpener(open Opener) Option {
	return func(h *Handler) {
		if open != nil {
			h.open = open
		}
	}
}

// WithFileCreator replaces os.Create for the "file" output.
func WithFileCreator(create func(path string) (io.WriteCloser, error)) Option {
	return func(h *Handler) {
		if create != nil {
			h.create = create
		}
	}
}

type (
	// OpenParams are the options a host passes to open a connection.
	OpenParams struct {
		ID              string   `arg:"id,optional"`
		URL             string   `arg:"url,optional"`
		Region          string   `arg:"s3_region,optional"`
		AccessKeyID     string   `arg:"s3_access_key_id,optional"`
		SecretAccessKey string   `arg:"s3_secret_access_key,optional"`
		SecretName      string   `arg:"secret_name,optional"`
		Extensions      []string `arg:"extensions,optional"`
		LocalOnly       bool     `arg:"local_only,optional"`
		Indifferent     bool     `arg:"indifferent_access,optional"`
		CacheSize       int      `arg:"statement_cache_size,optional"`
	}

	// FormatParams select what part of a result is formatted and where it goes.
	// From and To follow core.Result.Rows; a zero To selects through the last
	// row.
	FormatParams struct {
		Format string `arg:"format"`
		Output string `arg:"output,optional"`
		Mode   string `arg:"mode,optional"`
		Path   string `arg:"path,optional"`
		From   int    `arg:"from,optional"`
		To     int    `arg:"to,optional"`
	}
)

type Handler struct {
	log    core.Logger
	open   Opener
	create func(path string) (io.WriteCloser, error)

	mu               sync.Mutex
	lookupConnection map[core.ConnectionID]*core.Connection
	initializers     map[core.ConnectionID]*schema.Initializer
}

func New(logger core.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = core.NopLogger{}
	}

	h := &Handler{
		log:              logger,
		open:             adapters.Open,
		create:           createFile,
		lookupConnection: make(map[core.ConnectionID]*core.Connection),
		initializers:     make(map[core.ConnectionID]*schema.Initializer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Close closes every connection concurrently and returns the first failure.
func (h *Handler) Close() error {
	h.mu.Lock()
	conns := h.lookupConnection
	h.lookupConnection = make(map[core.ConnectionID]*core.Connection)
	h.initializers = make(map[core.ConnectionID]*schema.Initializer)
	h.mu.Unlock()

	var g errgroup.Group
	for id, c := range conns {
		g.Go(func() error {
			if err := c.Close(); err != nil {
				return fmt.Errorf("closing connection %q: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (h *Handler) OpenConnection(ctx context.Context, params *OpenParams) (core.ConnectionID, error) {
	if params == nil {
		params = &OpenParams{}
	}

	id := core.ConnectionID(params.ID)
	if id == "" {
		id = core.ConnectionID(uuid.New().String())
	}

	opts := []core.Option{
		core.WithID(id),
		core.WithURL(params.URL),
		core.WithLogger(h.log),
		core.WithIndifferentAccess(params.Indifferent),
		core.WithStatementCacheSize(params.CacheSize),
	}
	if params.LocalOnly {
		opts = append(opts, core.WithoutRemoteStorage())
	}
	if params.SecretName != "" {
		opts = append(opts, core.WithSecretName(params.SecretName))
	}
	if len(params.Extensions) > 0 {
		opts = append(opts, core.WithExtensions(params.Extensions...))
	}

	cfg := &core.Config{
		Region:          params.Region,
		AccessKeyID:     params.AccessKeyID,
		SecretAccessKey: params.SecretAccessKey,
	}

	// a connection with the same id is replaced, unless it is still busy
	if err := h.CloseConnection(id); err != nil {
		return "", fmt.Errorf("replacing connection %q: %w", id, err)
	}

	c, err := h.open(ctx, cfg, opts...)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	old, ok := h.lookupConnection[c.GetID()]
	h.lookupConnection[c.GetID()] = c
	delete(h.initializers, c.GetID())
	h.mu.Unlock()

	if ok {
		// opened concurrently under the same id
		if err := old.Close(); err != nil {
			h.log.Warnf("closing replaced connection %q: %s", old.GetID(), err)
		}
	}

	h.log.Infof("opened connection %q", c.GetID())
	return c.GetID(), nil
}

func (h *Handler) CloseConnection(id core.ConnectionID) error {
	h.mu.Lock()
	c, ok := h.lookupConnection[id]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	delete(h.lookupConnection, id)
	h.mu.Unlock()

	if err := c.Close(); err != nil {
		// keep a busy connection reachable so it can be closed later
		h.mu.Lock()
		if _, taken := h.lookupConnection[id]; !taken {
			h.lookupConnection[id] = c
		}
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	if _, reopened := h.lookupConnection[id]; !reopened {
		delete(h.initializers, id)
	}
	h.mu.Unlock()

	h.log.Infof("closed connection %q", id)
	return nil
}

// Connections returns every open connection.
func (h *Handler) Connections() []*core.Connection {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := make([]*core.Connection, 0, len(h.lookupConnection))
	for _, c := range h.lookupConnection {
		conns = append(conns, c)
	}
	return conns
}

func (h *Handler) connection(id core.ConnectionID) (*core.Connection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.lookupConnection[id]
	if !ok {
		return nil, core.NewError(core.KindClosed, ErrUnknownConnection(id))
	}
	return c, nil
}

func (h *Handler) catalog(id core.ConnectionID) (*catalog.Catalog, error) {
	c, err := h.connection(id)
	if err != nil {
		return nil, err
	}
	return catalog.New(c, h.log), nil
}

func (h *Handler) Execute(ctx context.Context, id core.ConnectionID, query string) (int64, error) {
	c, err := h.connection(id)
	if err != nil {
		return 0, err
	}
	return c.Execute(ctx, query)
}

func (h *Handler) ExecuteBatch(ctx context.Context, id core.ConnectionID, query string) error {
	c, err := h.connection(id)
	if err != nil {
		return err
	}
	return c.ExecuteBatch(ctx, query)
}

func (h *Handler) QueryRows(ctx context.Context, id core.ConnectionID, query string) ([]any, error) {
	c, err := h.connection(id)
	if err != nil {
		return nil, err
	}
	return c.QueryRows(ctx, query)
}

func (h *Handler) QueryObjects(ctx context.Context, id core.ConnectionID, query string) ([]host.Keyed, error) {
	c, err := h.connection(id)
	if err != nil {
		return nil, err
	}
	return c.QueryObjects(ctx, query)
}

func (h *Handler) Stats(id core.ConnectionID) (core.CacheStats, error) {
	c, err := h.connection(id)
	if err != nil {
		return core.CacheStats{}, err
	}
	return c.Stats(), nil
}

// Format runs query and renders the selected rows. With the "string" output
// (the default) the text is returned, with "file" it is written to
// params.Path and nothing is returned.
func (h *Handler) Format(ctx context.Context, id core.ConnectionID, query string, params *FormatParams) (string, error) {
	if params == nil {
		params = &FormatParams{Format: "table"}
	}

	formatter, err := newFormatter(params.Format)
	if err != nil {
		return "", core.NewError(core.KindConfig, err)
	}

	c, err := h.connection(id)
	if err != nil {
		return "", err
	}

	res, err := c.QueryResult(ctx, query)
	if err != nil {
		return "", err
	}

	to := params.To
	if to == 0 {
		to = -1
	}

	text, err := res.Format(formatter, core.ModeFromString(params.Mode), params.From, to)
	if err != nil {
		return "", fmt.Errorf("res.Format: %w", err)
	}

	if params.Output == "" || params.Output == "string" {
		return string(text), nil
	}

	writer, err := h.getStoreWriter(params.Output, params.Path)
	if err != nil {
		return "", core.NewError(core.KindConfig, err)
	}

	if _, err := writer.Write(text); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("writer.Write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("writer.Close: %w", err)
	}
	return "", nil
}

func newFormatter(name string) (core.Formatter, error) {
	switch strings.ToLower(name) {
	case "json":
		return format.NewJSON(), nil
	case "csv":
		return format.NewCSV(), nil
	case "table", "":
		return format.NewTable(), nil
	default:
		return nil, ErrUnknownFormat(name)
	}
}

func (h *Handler) getStoreWriter(output, path string) (io.WriteCloser, error) {
	switch output {
	case "file":
		if path == "" {
			return nil, ErrNoOutputPath
		}
		return h.create(path)
	}

	return nil, ErrUnknownOutput(output)
}

func createFile(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (h *Handler) Tables(ctx context.Context, id core.ConnectionID) ([]host.Keyed, error) {
	cat, err := h.catalog(id)
	if err != nil {
		return nil, err
	}
	return cat.Tables(ctx)
}

func (h *Handler) Views(ctx context.Context, id core.ConnectionID) ([]host.Keyed, error) {
	cat, err := h.catalog(id)
	if err != nil {
		return nil, err
	}
	return cat.Views(ctx)
}

func (h *Handler) Memory(ctx context.Context, id core.ConnectionID) ([]host.Keyed, error) {
	cat, err := h.catalog(id)
	if err != nil {
		return nil, err
	}
	return cat.Memory(ctx)
}

// Drop drops an object. An empty schema leaves the name unqualified.
func (h *Handler) Drop(ctx context.Context, id core.ConnectionID, schemaName, name, kind string) error {
	objectKind, err := catalog.ParseObjectKind(kind)
	if err != nil {
		return core.NewError(core.KindConfig, err)
	}

	cat, err := h.catalog(id)
	if err != nil {
		return err
	}
	object := catalog.Name{Schema: schemaName, Name: name}
	if err := cat.Drop(ctx, object, objectKind); err != nil {
		return err
	}

	if schemaName == "" || schemaName == "main" {
		h.forget(id, name)
	}
	return nil
}

func (h *Handler) Clear(ctx context.Context, id core.ConnectionID) error {
	cat, err := h.catalog(id)
	if err != nil {
		return err
	}
	if err := cat.Clear(ctx); err != nil {
		return err
	}

	h.forget(id)
	return nil
}

// Dump copies tables of one schema into filename.
func (h *Handler) Dump(ctx context.Context, id core.ConnectionID, filename, schemaName string, tables []string) error {
	cat, err := h.catalog(id)
	if err != nil {
		return err
	}

	names := make([]catalog.Name, 0, len(tables))
	for _, t := range tables {
		names = append(names, catalog.Name{Schema: schemaName, Name: t})
	}
	return cat.Dump(ctx, filename, names...)
}

func (h *Handler) Structure(ctx context.Context, id core.ConnectionID) ([]*core.Structure, error) {
	cat, err := h.catalog(id)
	if err != nil {
		return nil, err
	}
	return cat.Structure(ctx)
}
