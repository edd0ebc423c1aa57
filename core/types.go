package core

import (
	"github.com/neovim/go-client/msgpack"

	"github.com/snowduck/snowduck/value"
)

// Mode selects the shape a projected row takes.
type Mode int

const (
	// ModeArray returns a single column row as the bare value and wider rows
	// as an ordered array.
	ModeArray Mode = iota
	// ModeObject returns a keyed structure from column name to value.
	ModeObject
)

func (m Mode) String() string {
	switch m {
	case ModeArray:
		return "array"
	case ModeObject:
		return "object"
	default:
		return ""
	}
}

func ModeFromString(s string) Mode {
	switch s {
	case ModeObject.String():
		return ModeObject
	default:
		return ModeArray
	}
}

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		Mode       Mode
		ChunkStart int
	}

	// Formatter converts a materialized result to bytes
	Formatter interface {
		Format(header Header, rows [][]any, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Header holds column names in order.
	Header []string

	// RowStream is a result from executed query and has a form of an iterator
	RowStream interface {
		Header() Header
		Next() (value.Row, error)
		HasNext() bool
		Close()
	}
)

type StructureType int

const (
	StructureTypeNone StructureType = iota
	StructureTypeTable
	StructureTypeView
	StructureTypeSchema
)

func (s StructureType) String() string {
	switch s {
	case StructureTypeNone:
		return ""
	case StructureTypeTable:
		return "table"
	case StructureTypeView:
		return "view"
	case StructureTypeSchema:
		return "schema"
	default:
		return ""
	}
}

// Structure represents the structure of a single database
type Structure struct {
	// Name to be displayed
	Name   string
	Schema string
	// Type of layout
	Type StructureType
	// Children layout nodes
	Children []*Structure
}

func (s *Structure) MarshalMsgPack(enc *msgpack.Encoder) error {
	return enc.Encode(&struct {
		Name     string       `msgpack:"name"`
		Schema   string       `msgpack:"schema"`
		Type     string       `msgpack:"type"`
		Children []*Structure `msgpack:"children"`
	}{
		Name:     s.Name,
		Schema:   s.Schema,
		Type:     s.Type.String(),
		Children: s.Children,
	})
}
