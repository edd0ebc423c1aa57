package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/snowduck/snowduck/catalog"
	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/host"
)

// Initializer creates definitions of a Database in a session on demand and
// remembers what it created.
type Initializer struct {
	db         *Database
	session    catalog.Session
	catalog    *catalog.Catalog
	log        core.Logger
	extensions []string

	mu          sync.Mutex
	initialized []string
	created     map[string]struct{}
}

type Option func(*Initializer)

func WithLogger(l core.Logger) Option {
	return func(in *Initializer) {
		if l != nil {
			in.log = l
		}
	}
}

// WithExtensions sets the extensions loaded before reading a remote source.
func WithExtensions(names ...string) Option {
	return func(in *Initializer) {
		in.extensions = names
	}
}

func NewInitializer(db *Database, session catalog.Session, opts ...Option) *Initializer {
	in := &Initializer{
		db:         db,
		session:    session,
		log:        core.NopLogger{},
		extensions: core.DefaultExtensions,
		created:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.catalog = catalog.New(session, in.log)
	return in
}

// Redefine returns an initializer for db on the same session. Tables created
// by in stay initialized when neither their definition nor that of any
// dependency changed.
func (in *Initializer) Redefine(db *Database) *Initializer {
	next := &Initializer{
		db:         db,
		session:    in.session,
		catalog:    in.catalog,
		log:        in.log,
		extensions: in.extensions,
		created:    make(map[string]struct{}),
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	for _, name := range in.initialized {
		def, ok := db.index[name]
		if !ok || !def.same(in.db.index[name]) {
			continue
		}
		kept := true
		for _, dep := range def.DependsOn {
			if _, ok := next.created[dep]; !ok {
				kept = false
				break
			}
		}
		if kept {
			next.markCreated(name)
		}
	}
	return next
}

func (in *Initializer) Database() *Database {
	return in.db
}

// Initialized returns the names created so far, in creation order.
func (in *Initializer) Initialized() []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]string, len(in.initialized))
	copy(out, in.initialized)
	return out
}

func (in *Initializer) markCreated(name string) {
	in.created[name] = struct{}{}
	in.initialized = append(in.initialized, name)
}

// Initialize creates names and everything they depend on, dependencies
// first. Definitions that were already created are skipped.
func (in *Initializer) Initialize(ctx context.Context, names ...string) error {
	order, err := in.db.Order(names...)
	if err != nil {
		return core.NewError(core.KindConfig, err)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	for _, name := range order {
		if _, ok := in.created[name]; ok {
			continue
		}

		def := in.db.index[name]
		start := time.Now()
		if err := in.create(ctx, def); err != nil {
			return fmt.Errorf("initialize %s %q: %w", def.kind(), name, err)
		}
		in.log.Infof("initialized %s %s in %dms", def.kind(), name, time.Since(start).Milliseconds())
		in.markCreated(name)
	}
	return nil
}

func (in *Initializer) create(ctx context.Context, def *Definition) error {
	name := host.QuoteIdentifier(def.Name)

	switch {
	case def.View:
		return in.session.ExecuteBatch(ctx, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS (%s);", name, def.Query))
	case def.Source == nil:
		return in.session.ExecuteBatch(ctx, fmt.Sprintf("CREATE OR REPLACE TABLE %s AS (%s);", name, def.Query))
	}

	location, err := core.Expand(def.Source.Location)
	if err != nil {
		return core.NewError(core.KindConfig, fmt.Errorf("expand location of %q: %w", def.Name, err))
	}

	query, err := in.ingestStatement(name, location, def.Source)
	if err != nil {
		return err
	}

	err = in.session.ExecuteBatch(ctx, query)
	if err == nil || len(def.Source.Columns) == 0 || !missingFile(err) {
		return err
	}

	// nothing was exported, so there is no file to detect columns from
	in.log.Warnf("source %s of %s does not exist, the result set was probably empty", location, def.Name)
	return in.session.ExecuteBatch(ctx, emptyTableStatement(name, def.Source.Columns))
}

func (in *Initializer) ingestStatement(table, location string, src *Source) (string, error) {
	var sb strings.Builder
	if strings.Contains(location, "://") {
		for _, ext := range in.extensions {
			fmt.Fprintf(&sb, "LOAD %s; ", ext)
		}
	}

	format, err := ParseSourceFormat(string(src.Format))
	if err != nil {
		return "", core.NewError(core.KindConfig, err)
	}

	switch format {
	case FormatCSV:
		fmt.Fprintf(&sb, "CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv(%s", table, host.Quote(location))
		if len(src.Columns) > 0 {
			// declared types win over detection, which reads an empty file as all VARCHAR
			fmt.Fprintf(&sb, ", types = %s", columnTypes(src.Columns))
		}
		sb.WriteString(");")
	default:
		fmt.Fprintf(&sb, "CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s);", table, host.Quote(location))
	}
	return sb.String(), nil
}

func columnTypes(columns []Column) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = host.Quote(c.Name) + ": " + host.Quote(c.Type)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func emptyTableStatement(table string, columns []Column) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = host.QuoteIdentifier(c.Name) + " " + c.Type
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s);", table, strings.Join(parts, ", "))
}

// missingFile reports whether err says that a source file does not exist.
func missingFile(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "HTTP") && strings.Contains(msg, "404") {
		return true
	}
	return strings.Contains(msg, "No files found that match the pattern")
}

// Dump copies every initialized definition into the database file filename,
// dependencies first. Views are copied as tables.
func (in *Initializer) Dump(ctx context.Context, filename string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	order, err := in.db.Order(in.initialized...)
	if err != nil {
		return err
	}

	names := make([]catalog.Name, 0, len(order))
	for _, name := range order {
		if _, ok := in.created[name]; !ok {
			continue
		}
		names = append(names, catalog.Unqualified(name))
	}
	return in.catalog.Dump(ctx, filename, names...)
}

// Drop drops an initialized definition, so the next Initialize creates it
// again.
func (in *Initializer) Drop(ctx context.Context, name string) error {
	def, ok := in.db.index[name]
	if !ok {
		return core.NewError(core.KindConfig, ErrUnknownTable(name))
	}

	kind := catalog.ObjectTable
	if def.View {
		kind = catalog.ObjectView
	}
	if err := in.catalog.Drop(ctx, catalog.Unqualified(name), kind); err != nil {
		return err
	}

	in.Forget(name)
	return nil
}

// Forget stops tracking names, e.g. after they were dropped by other means.
// Without names everything is forgotten.
func (in *Initializer) Forget(names ...string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(names) == 0 {
		in.initialized = nil
		in.created = make(map[string]struct{})
		return
	}

	for _, name := range names {
		delete(in.created, name)
	}
	kept := in.initialized[:0]
	for _, name := range in.initialized {
		if _, ok := in.created[name]; ok {
			kept = append(kept, name)
		}
	}
	in.initialized = kept
}
