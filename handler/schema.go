package handler

import (
	"context"
	"fmt"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/schema"
)

var ErrNoDefinitions = func(id core.ConnectionID) error {
	return fmt.Errorf("connection %q has no table definitions", id)
}

// TableParams declare one table or view of a connection. Either Query or
// Location is set. Columns are "name TYPE" pairs.
type TableParams struct {
	Name      string   `arg:"name"`
	Query     string   `arg:"query,optional"`
	View      bool     `arg:"view,optional"`
	DependsOn []string `arg:"depends_on,optional"`
	Location  string   `arg:"location,optional"`
	Format    string   `arg:"format,optional"`
	Columns   []string `arg:"columns,optional"`
}

func (p *TableParams) definition() (schema.Definition, error) {
	def := schema.Definition{
		Name:      p.Name,
		View:      p.View,
		Query:     p.Query,
		DependsOn: p.DependsOn,
	}
	if p.Location == "" && p.Format == "" && len(p.Columns) == 0 {
		return def, nil
	}

	def.Source = &schema.Source{
		Location: p.Location,
		Format:   schema.SourceFormat(p.Format),
	}
	for _, raw := range p.Columns {
		col, err := schema.ParseColumn(raw)
		if err != nil {
			return schema.Definition{}, fmt.Errorf("table %q: %w", p.Name, err)
		}
		def.Source.Columns = append(def.Source.Columns, col)
	}
	return def, nil
}

// DefineTables replaces the table definitions of a connection. Tables that
// were initialized under the previous definitions stay initialized as long as
// they and their dependencies did not change.
func (h *Handler) DefineTables(id core.ConnectionID, tables []*TableParams) error {
	c, err := h.connection(id)
	if err != nil {
		return err
	}

	defs := make([]schema.Definition, 0, len(tables))
	for _, t := range tables {
		def, err := t.definition()
		if err != nil {
			return core.NewError(core.KindConfig, err)
		}
		defs = append(defs, def)
	}

	db, err := schema.NewDatabase(defs...)
	if err != nil {
		return core.NewError(core.KindConfig, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.initializers[id]; ok {
		h.initializers[id] = old.Redefine(db)
	} else {
		h.initializers[id] = schema.NewInitializer(db, c,
			schema.WithLogger(h.log),
			schema.WithExtensions(c.Extensions()...),
		)
	}

	h.log.Infof("defined %d tables on connection %q", len(db.Definitions()), id)
	return nil
}

func (h *Handler) initializer(id core.ConnectionID) (*schema.Initializer, error) {
	if _, err := h.connection(id); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	in, ok := h.initializers[id]
	if !ok {
		return nil, core.NewError(core.KindConfig, ErrNoDefinitions(id))
	}
	return in, nil
}

// Initialize creates tables and everything they depend on.
func (h *Handler) Initialize(ctx context.Context, id core.ConnectionID, tables []string) error {
	in, err := h.initializer(id)
	if err != nil {
		return err
	}
	return in.Initialize(ctx, tables...)
}

// Initialized returns the defined tables created so far.
func (h *Handler) Initialized(id core.ConnectionID) ([]string, error) {
	in, err := h.initializer(id)
	if err != nil {
		return nil, err
	}
	return in.Initialized(), nil
}

// DumpInitialized copies every initialized table into filename.
func (h *Handler) DumpInitialized(ctx context.Context, id core.ConnectionID, filename string) error {
	in, err := h.initializer(id)
	if err != nil {
		return err
	}
	return in.Dump(ctx, filename)
}

// Graph renders the table definitions as "mermaid" or "text".
func (h *Handler) Graph(id core.ConnectionID, format string) (string, error) {
	render, err := schema.ParseRenderer(format)
	if err != nil {
		return "", core.NewError(core.KindConfig, err)
	}

	in, err := h.initializer(id)
	if err != nil {
		return "", err
	}
	return render(in.Database()), nil
}

// forget stops tracking dropped tables. Without names the whole
// initialized set is reset.
func (h *Handler) forget(id core.ConnectionID, names ...string) {
	h.mu.Lock()
	in, ok := h.initializers[id]
	h.mu.Unlock()

	if ok {
		in.Forget(names...)
	}
}
