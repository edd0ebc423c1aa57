// Package schema declares the tables and views a session is built from and
// creates them in dependency order.
//
// A Definition is either ingested from a remote file (Source) or derived
// from other definitions with a query (Query plus DependsOn). Definitions
// form a directed acyclic graph; Database validates and orders it and
// Initializer creates only the part of it a caller asks for.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrNoDefinitions       = errors.New("at least one table definition is required")
	ErrUnknownTable        = func(name string) error { return fmt.Errorf("unknown table %q", name) }
	ErrUnknownDependency   = func(table, dep string) error { return fmt.Errorf("dependency %q of %q is not in the table list", dep, table) }
	ErrAmbiguousTable      = func(names []string) error { return fmt.Errorf("tables %q have multiple different definitions", names) }
	ErrCycle               = func(path []string) error { return fmt.Errorf("cyclic dependency: %s", strings.Join(path, " -> ")) }
	ErrInvalidDefinition   = func(name, reason string) error { return fmt.Errorf("invalid definition of %q: %s", name, reason) }
	ErrUnknownSourceFormat = func(format string) error { return fmt.Errorf("unknown source format %q", format) }
)

// SourceFormat is the file format of a remote source.
type SourceFormat string

const (
	FormatParquet SourceFormat = "parquet"
	FormatCSV     SourceFormat = "csv"
)

func ParseSourceFormat(s string) (SourceFormat, error) {
	format := SourceFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case "":
		return FormatParquet, nil
	case FormatParquet, FormatCSV:
		return format, nil
	}
	return "", ErrUnknownSourceFormat(s)
}

// Column is a declared column of an ingested table.
type Column struct {
	Name string
	Type string
}

// ParseColumn parses "name TYPE". A double quoted name may contain spaces.
func ParseColumn(s string) (Column, error) {
	s = strings.TrimSpace(s)

	var name, typ string
	if strings.HasPrefix(s, `"`) {
		end := strings.Index(s[1:], `"`)
		if end < 0 {
			return Column{}, fmt.Errorf("unterminated column name in %q", s)
		}
		name, typ = s[1:end+1], strings.TrimSpace(s[end+2:])
	} else {
		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return Column{}, fmt.Errorf("column %q has no type", s)
		}
		name, typ = s[:idx], strings.TrimSpace(s[idx+1:])
	}

	if name == "" || typ == "" {
		return Column{}, fmt.Errorf("column %q needs a name and a type", s)
	}
	return Column{Name: name, Type: typ}, nil
}

// Source is a file a table is ingested from, usually an s3:// location.
type Source struct {
	// Location may use the env, exec and file template functions of
	// core.Expand, e.g. "s3://{{ env \"LAKE_BUCKET\" }}/users.parquet".
	Location string
	Format   SourceFormat
	// Columns, when set, override CSV type detection and define the empty
	// table created when the file does not exist.
	Columns []Column
}

// Definition declares a single table or view.
type Definition struct {
	Name string
	// View creates a view from Query instead of a table.
	View bool
	// Query defines derived tables and views.
	Query  string
	Source *Source
	// DependsOn names the definitions Query reads from.
	DependsOn []string
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return ErrInvalidDefinition(d.Name, "name is empty")
	}

	switch {
	case d.Source != nil && d.Query != "":
		return ErrInvalidDefinition(d.Name, "both a query and a source are set")
	case d.Source == nil && d.Query == "":
		return ErrInvalidDefinition(d.Name, "neither a query nor a source is set")
	case d.Source != nil && len(d.DependsOn) > 0:
		// ingestion reads nothing from the session
		return ErrInvalidDefinition(d.Name, "an ingested table cannot depend on other tables, split it into an ingested and a derived table")
	case d.Source != nil && d.View:
		return ErrInvalidDefinition(d.Name, "a view needs a query")
	}

	if d.Source != nil {
		if d.Source.Location == "" {
			return ErrInvalidDefinition(d.Name, "source location is empty")
		}
		if _, err := ParseSourceFormat(string(d.Source.Format)); err != nil {
			return ErrInvalidDefinition(d.Name, err.Error())
		}
	}
	return nil
}

// same reports whether two definitions under one name create the same object.
func (d *Definition) same(other *Definition) bool {
	if d.Name != other.Name || d.View != other.View || d.Query != other.Query {
		return false
	}
	if !slices.Equal(d.DependsOn, other.DependsOn) {
		return false
	}
	if d.Source == nil || other.Source == nil {
		return d.Source == other.Source
	}
	return d.Source.Location == other.Source.Location &&
		d.Source.Format == other.Source.Format &&
		slices.Equal(d.Source.Columns, other.Source.Columns)
}

func (d *Definition) clone() Definition {
	cp := *d
	cp.DependsOn = slices.Clone(d.DependsOn)
	if d.Source != nil {
		src := *d.Source
		src.Columns = slices.Clone(d.Source.Columns)
		cp.Source = &src
	}
	return cp
}

func (d *Definition) kind() string {
	if d.View {
		return "view"
	}
	return "table"
}
