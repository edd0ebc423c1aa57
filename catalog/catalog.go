// Package catalog inspects and maintains the objects of a DuckDB session.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/host"
)

var ErrUnknownObjectKind = errors.New("unknown object kind")

// DumpAlias is the name a dump target database is attached under.
const DumpAlias = "file_dump_database"

const defaultSchema = "main"

const (
	tablesQuery    = "SELECT * FROM duckdb_tables();"
	viewsQuery     = "SELECT * FROM duckdb_views() WHERE NOT internal;"
	memoryQuery    = "SELECT * FROM duckdb_memory();"
	tableNameQuery = "SELECT schema_name, table_name FROM duckdb_tables() WHERE NOT internal ORDER BY schema_name, table_name;"
	viewNameQuery  = "SELECT schema_name, view_name FROM duckdb_views() WHERE NOT internal ORDER BY schema_name, view_name;"
	structureQuery = "SELECT table_schema, table_name, table_type FROM information_schema.tables ORDER BY table_schema, table_name;"
)

// Name identifies a catalog object. An empty Schema leaves the object
// unqualified, so it resolves through the search path.
type Name struct {
	Schema string
	Name   string
}

// Unqualified names an object by its bare name.
func Unqualified(name string) Name {
	return Name{Name: name}
}

func (n Name) String() string {
	if n.Schema == "" {
		return n.Name
	}
	return n.Schema + "." + n.Name
}

// Quoted renders n as SQL, quoting each part on its own.
func (n Name) Quoted() string {
	if n.Schema == "" {
		return host.QuoteIdentifier(n.Name)
	}
	return host.QuoteIdentifier(n.Schema) + "." + host.QuoteIdentifier(n.Name)
}

// inDefaultSchema reports whether n lives in the main schema.
func (n Name) inDefaultSchema() bool {
	return n.Schema == "" || n.Schema == defaultSchema
}

// ObjectKind is a droppable catalog object kind.
type ObjectKind string

const (
	ObjectTable    ObjectKind = "table"
	ObjectView     ObjectKind = "view"
	ObjectMacro    ObjectKind = "macro"
	ObjectFunction ObjectKind = "function"
)

func ParseObjectKind(s string) (ObjectKind, error) {
	kind := ObjectKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case ObjectTable, ObjectView, ObjectMacro, ObjectFunction:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownObjectKind, s)
}

// Session is the part of core.Connection the catalog needs.
type Session interface {
	ExecuteBatch(ctx context.Context, query string) error
	QueryRows(ctx context.Context, query string) ([]any, error)
	QueryObjects(ctx context.Context, query string) ([]host.Keyed, error)
}

var _ Session = (*core.Connection)(nil)

type Catalog struct {
	session Session
	log     core.Logger
}

func New(session Session, logger core.Logger) *Catalog {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Catalog{
		session: session,
		log:     logger,
	}
}

// timed logs how long fn took.
func (c *Catalog) timed(message string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.log.Debugf("%s took %dms", message, time.Since(start).Milliseconds())
	return err
}

// Tables describes every table of the session.
func (c *Catalog) Tables(ctx context.Context) ([]host.Keyed, error) {
	return c.session.QueryObjects(ctx, tablesQuery)
}

// Views describes every user defined view of the session.
func (c *Catalog) Views(ctx context.Context) ([]host.Keyed, error) {
	return c.session.QueryObjects(ctx, viewsQuery)
}

// Memory reports the memory usage of the engine per component.
func (c *Catalog) Memory(ctx context.Context) ([]host.Keyed, error) {
	return c.session.QueryObjects(ctx, memoryQuery)
}

// Drop drops the named object of the given kind if it exists.
func (c *Catalog) Drop(ctx context.Context, name Name, kind ObjectKind) error {
	if _, err := ParseObjectKind(string(kind)); err != nil {
		return err
	}

	query := fmt.Sprintf("DROP %s IF EXISTS %s;", strings.ToUpper(string(kind)), name.Quoted())
	return c.timed(fmt.Sprintf("dropping %s %s", kind, name), func() error {
		return c.session.ExecuteBatch(ctx, query)
	})
}

// Clear drops every user table, then every user view.
func (c *Catalog) Clear(ctx context.Context) error {
	groups := []struct {
		kind  ObjectKind
		query string
	}{
		{kind: ObjectTable, query: tableNameQuery},
		{kind: ObjectView, query: viewNameQuery},
	}

	for _, g := range groups {
		names, err := c.names(ctx, g.query)
		if err != nil {
			return fmt.Errorf("list %ss: %w", g.kind, err)
		}

		for _, name := range names {
			c.log.Infof("Dropping %s %s", g.kind, name)
			if err := c.Drop(ctx, name, g.kind); err != nil {
				return fmt.Errorf("drop %s %s: %w", g.kind, name, err)
			}
		}
	}
	return nil
}

// names reads rows of schema and object name.
func (c *Catalog) names(ctx context.Context, query string) ([]Name, error) {
	rows, err := c.session.QueryRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Name, 0, len(rows))
	for _, row := range rows {
		cells, ok := row.([]any)
		if !ok || len(cells) != 2 {
			return nil, fmt.Errorf("unexpected catalog row: %v", row)
		}
		schema, _ := cells[0].(string)
		name, _ := cells[1].(string)
		out = append(out, Name{Schema: schema, Name: name})
	}
	return out, nil
}

// Dump copies tables into the database file filename, creating it if needed.
// Every table is copied once, in the given order. Tables outside the main
// schema keep their schema in the dump.
func (c *Catalog) Dump(ctx context.Context, filename string, tables ...Name) (err error) {
	if err := c.session.ExecuteBatch(ctx, fmt.Sprintf("ATTACH %s AS %s;", host.Quote(filename), DumpAlias)); err != nil {
		return fmt.Errorf("attach %s: %w", filename, err)
	}
	defer func() {
		detachErr := c.session.ExecuteBatch(ctx, fmt.Sprintf("DETACH %s;", DumpAlias))
		if err == nil && detachErr != nil {
			err = fmt.Errorf("detach %s: %w", filename, detachErr)
		}
	}()

	copied := make(map[Name]struct{}, len(tables))
	schemas := make(map[string]struct{})
	for _, table := range tables {
		target := table
		if table.inDefaultSchema() {
			target.Schema = ""
		}
		if _, ok := copied[target]; ok {
			c.log.Infof("%s already dumped, skipping...", table)
			continue
		}

		var query string
		if target.Schema != "" {
			if _, ok := schemas[target.Schema]; !ok {
				query = fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s.%s; ", DumpAlias, host.QuoteIdentifier(target.Schema))
				schemas[target.Schema] = struct{}{}
			}
		}
		query += fmt.Sprintf("CREATE TABLE %s.%s AS SELECT * FROM %s;", DumpAlias, target.Quoted(), table.Quoted())

		err := c.timed("dumping "+table.String(), func() error {
			return c.session.ExecuteBatch(ctx, query)
		})
		if err != nil {
			return fmt.Errorf("dump %s: %w", table, err)
		}
		copied[target] = struct{}{}
	}
	return nil
}

// Structure returns schemas with their tables and views.
func (c *Catalog) Structure(ctx context.Context) ([]*core.Structure, error) {
	rows, err := c.session.QueryRows(ctx, structureQuery)
	if err != nil {
		return nil, err
	}

	var (
		schemas []*core.Structure
		index   = make(map[string]*core.Structure)
	)
	for _, row := range rows {
		cells, ok := row.([]any)
		if !ok || len(cells) != 3 {
			return nil, fmt.Errorf("unexpected structure row: %v", row)
		}
		schema, _ := cells[0].(string)
		name, _ := cells[1].(string)
		typ, _ := cells[2].(string)

		parent, ok := index[schema]
		if !ok {
			parent = &core.Structure{
				Name:   schema,
				Schema: schema,
				Type:   core.StructureTypeSchema,
			}
			index[schema] = parent
			schemas = append(schemas, parent)
		}

		parent.Children = append(parent.Children, &core.Structure{
			Name:   name,
			Schema: schema,
			Type:   structureType(typ),
		})
	}

	// fallback to not confuse users
	if len(schemas) < 1 {
		schemas = []*core.Structure{
			{
				Name: "no schema to show",
				Type: core.StructureTypeNone,
			},
		}
	}
	return schemas, nil
}

func structureType(typ string) core.StructureType {
	switch typ {
	case "BASE TABLE", "LOCAL TEMPORARY":
		return core.StructureTypeTable
	case "VIEW":
		return core.StructureTypeView
	default:
		return core.StructureTypeNone
	}
}
