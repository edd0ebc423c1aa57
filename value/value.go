// Package value models the cell values DuckDB hands back for a result row.
//
// Value is a closed sum type: every variant implements Accept, which
// dispatches to the matching Visitor method. Adding a variant means adding a
// Visitor method, so every consumer fails to compile until it handles it.
package value

import (
	"math/big"
)

type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindDecimal
	KindHugeInt
	KindText
	KindBlob
	KindDate32
	KindTimestamp
	KindTime
	KindInterval
	KindList
	KindArray
	KindStruct
	KindMap
	KindEnum
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUInt8:
		return "uint8"
	case KindUInt16:
		return "uint16"
	case KindUInt32:
		return "uint32"
	case KindUInt64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindDecimal:
		return "decimal"
	case KindHugeInt:
		return "hugeint"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	case KindDate32:
		return "date32"
	case KindTimestamp:
		return "timestamp"
	case KindTime:
		return "time"
	case KindInterval:
		return "interval"
	case KindList:
		return "list"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindMap:
		return "map"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Value is a single engine cell value.
type Value interface {
	Kind() Kind
	Accept(Visitor) (any, error)
	sealed()
}

// Visitor has one method per Value variant.
type Visitor interface {
	VisitNull(Null) (any, error)
	VisitBoolean(Boolean) (any, error)
	VisitInt8(Int8) (any, error)
	VisitInt16(Int16) (any, error)
	VisitInt32(Int32) (any, error)
	VisitInt64(Int64) (any, error)
	VisitUInt8(UInt8) (any, error)
	VisitUInt16(UInt16) (any, error)
	VisitUInt32(UInt32) (any, error)
	VisitUInt64(UInt64) (any, error)
	VisitFloat32(Float32) (any, error)
	VisitFloat64(Float64) (any, error)
	VisitDecimal(Decimal) (any, error)
	VisitHugeInt(HugeInt) (any, error)
	VisitText(Text) (any, error)
	VisitBlob(Blob) (any, error)
	VisitDate32(Date32) (any, error)
	VisitTimestamp(Timestamp) (any, error)
	VisitTime(Time) (any, error)
	VisitInterval(Interval) (any, error)
	VisitList(List) (any, error)
	VisitArray(Array) (any, error)
	VisitStruct(Struct) (any, error)
	VisitMap(Map) (any, error)
	VisitEnum(Enum) (any, error)
	VisitUnion(Union) (any, error)
}

type (
	Null    struct{}
	Boolean bool
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	UInt8   uint8
	UInt16  uint16
	UInt32  uint32
	UInt64  uint64
	Float32 float32
	Float64 float64
	Text    string
	Blob    []byte

	// Date32 is a number of days since 1970-01-01.
	Date32 int32

	// Decimal is Unscaled × 10^-Scale.
	Decimal struct {
		Unscaled *big.Int
		Scale    uint8
	}

	// Timestamp is Value units since the unix epoch.
	Timestamp struct {
		Unit  TimeUnit
		Value int64
	}

	// Time is Value units since midnight.
	Time struct {
		Unit  TimeUnit
		Value int64
	}

	Interval struct {
		Months int32
		Days   int32
		Nanos  int64
	}

	List  []Value
	Array []Value

	Field struct {
		Name  string
		Value Value
	}
	// Struct keeps field order; names are not required to be unique.
	Struct []Field

	Entry struct {
		Key   Value
		Value Value
	}
	Map []Entry

	Enum struct {
		Label string
	}

	Union struct {
		Tag   string
		Value Value
	}
)

func (Null) Kind() Kind      { return KindNull }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Int8) Kind() Kind      { return KindInt8 }
func (Int16) Kind() Kind     { return KindInt16 }
func (Int32) Kind() Kind     { return KindInt32 }
func (Int64) Kind() Kind     { return KindInt64 }
func (UInt8) Kind() Kind     { return KindUInt8 }
func (UInt16) Kind() Kind    { return KindUInt16 }
func (UInt32) Kind() Kind    { return KindUInt32 }
func (UInt64) Kind() Kind    { return KindUInt64 }
func (Float32) Kind() Kind   { return KindFloat32 }
func (Float64) Kind() Kind   { return KindFloat64 }
func (Decimal) Kind() Kind   { return KindDecimal }
func (HugeInt) Kind() Kind   { return KindHugeInt }
func (Text) Kind() Kind      { return KindText }
func (Blob) Kind() Kind      { return KindBlob }
func (Date32) Kind() Kind    { return KindDate32 }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Time) Kind() Kind      { return KindTime }
func (Interval) Kind() Kind  { return KindInterval }
func (List) Kind() Kind      { return KindList }
func (Array) Kind() Kind     { return KindArray }
func (Struct) Kind() Kind    { return KindStruct }
func (Map) Kind() Kind       { return KindMap }
func (Enum) Kind() Kind      { return KindEnum }
func (Union) Kind() Kind     { return KindUnion }

func (v Null) Accept(vis Visitor) (any, error)      { return vis.VisitNull(v) }
func (v Boolean) Accept(vis Visitor) (any, error)   { return vis.VisitBoolean(v) }
func (v Int8) Accept(vis Visitor) (any, error)      { return vis.VisitInt8(v) }
func (v Int16) Accept(vis Visitor) (any, error)     { return vis.VisitInt16(v) }
func (v Int32) Accept(vis Visitor) (any, error)     { return vis.VisitInt32(v) }
func (v Int64) Accept(vis Visitor) (any, error)     { return vis.VisitInt64(v) }
func (v UInt8) Accept(vis Visitor) (any, error)     { return vis.VisitUInt8(v) }
func (v UInt16) Accept(vis Visitor) (any, error)    { return vis.VisitUInt16(v) }
func (v UInt32) Accept(vis Visitor) (any, error)    { return vis.VisitUInt32(v) }
func (v UInt64) Accept(vis Visitor) (any, error)    { return vis.VisitUInt64(v) }
func (v Float32) Accept(vis Visitor) (any, error)   { return vis.VisitFloat32(v) }
func (v Float64) Accept(vis Visitor) (any, error)   { return vis.VisitFloat64(v) }
func (v Decimal) Accept(vis Visitor) (any, error)   { return vis.VisitDecimal(v) }
func (v HugeInt) Accept(vis Visitor) (any, error)   { return vis.VisitHugeInt(v) }
func (v Text) Accept(vis Visitor) (any, error)      { return vis.VisitText(v) }
func (v Blob) Accept(vis Visitor) (any, error)      { return vis.VisitBlob(v) }
func (v Date32) Accept(vis Visitor) (any, error)    { return vis.VisitDate32(v) }
func (v Timestamp) Accept(vis Visitor) (any, error) { return vis.VisitTimestamp(v) }
func (v Time) Accept(vis Visitor) (any, error)      { return vis.VisitTime(v) }
func (v Interval) Accept(vis Visitor) (any, error)  { return vis.VisitInterval(v) }
func (v List) Accept(vis Visitor) (any, error)      { return vis.VisitList(v) }
func (v Array) Accept(vis Visitor) (any, error)     { return vis.VisitArray(v) }
func (v Struct) Accept(vis Visitor) (any, error)    { return vis.VisitStruct(v) }
func (v Map) Accept(vis Visitor) (any, error)       { return vis.VisitMap(v) }
func (v Enum) Accept(vis Visitor) (any, error)      { return vis.VisitEnum(v) }
func (v Union) Accept(vis Visitor) (any, error)     { return vis.VisitUnion(v) }

func (Null) sealed()      {}
func (Boolean) sealed()   {}
func (Int8) sealed()      {}
func (Int16) sealed()     {}
func (Int32) sealed()     {}
func (Int64) sealed()     {}
func (UInt8) sealed()     {}
func (UInt16) sealed()    {}
func (UInt32) sealed()    {}
func (UInt64) sealed()    {}
func (Float32) sealed()   {}
func (Float64) sealed()   {}
func (Decimal) sealed()   {}
func (HugeInt) sealed()   {}
func (Text) sealed()      {}
func (Blob) sealed()      {}
func (Date32) sealed()    {}
func (Timestamp) sealed() {}
func (Time) sealed()      {}
func (Interval) sealed()  {}
func (List) sealed()      {}
func (Array) sealed()     {}
func (Struct) sealed()    {}
func (Map) sealed()       {}
func (Enum) sealed()      {}
func (Union) sealed()     {}

// String returns the exact decimal representation, e.g. 123.456 for
// Unscaled=123456 and Scale=3.
func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}

	digits := new(big.Int).Abs(d.Unscaled).String()
	sign := ""
	if d.Unscaled.Sign() < 0 {
		sign = "-"
	}

	scale := int(d.Scale)
	if scale == 0 {
		return sign + digits
	}

	// left pad so there is at least one digit before the point
	for len(digits) <= scale {
		digits = "0" + digits
	}

	point := len(digits) - scale
	return sign + digits[:point] + "." + digits[point:]
}

// Cell is a single named column value of a row.
type Cell struct {
	Name  string
	Value Value
}

// Row is one result record in column order. Column names may repeat.
type Row []Cell

// Names returns the column names of the row in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i := range r {
		names[i] = r[i].Name
	}
	return names
}
