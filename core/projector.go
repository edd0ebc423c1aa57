package core

import (
	"github.com/snowduck/snowduck/convert"
	"github.com/snowduck/snowduck/host"
	"github.com/snowduck/snowduck/value"
)

// Projector shapes converted rows.
type Projector struct {
	converter   *convert.Converter
	indifferent bool
}

func NewProjector(converter *convert.Converter, indifferent bool) *Projector {
	if converter == nil {
		converter = convert.New()
	}
	return &Projector{
		converter:   converter,
		indifferent: indifferent,
	}
}

// Project shapes row according to mode.
func (p *Projector) Project(row value.Row, mode Mode) (any, error) {
	if mode == ModeObject {
		return p.Object(row)
	}
	return p.Array(row)
}

// Array returns the bare value for single column rows and an ordered array
// of values otherwise.
func (p *Projector) Array(row value.Row) (any, error) {
	switch len(row) {
	case 0:
		return nil, NewError(KindColumnConversion, ErrEmptyRow)
	case 1:
		return p.cell(row[0])
	}

	return p.Cells(row)
}

// Object returns the row as a keyed structure from column name to value.
// Duplicate column names are all kept in order; lookups resolve to the first.
func (p *Projector) Object(row value.Row) (host.Keyed, error) {
	obj := host.NewObject(len(row))
	for _, c := range row {
		converted, err := p.cell(c)
		if err != nil {
			return nil, err
		}
		obj.Set(host.Symbol(c.Name), converted)
	}

	if p.indifferent {
		return host.Indifferent(obj), nil
	}
	return obj, nil
}

// Cells converts every cell of row in column order.
func (p *Projector) Cells(row value.Row) ([]any, error) {
	out := make([]any, len(row))
	for i, c := range row {
		converted, err := p.cell(c)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func (p *Projector) cell(c value.Cell) (any, error) {
	converted, err := p.converter.Convert(c.Value)
	if err != nil {
		return nil, NewColumnError(c.Name, err)
	}
	return converted, nil
}
