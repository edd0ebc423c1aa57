package adapters

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snowduck/snowduck/value"
)

var (
	ErrInvalidTypeName = func(name string) error { return fmt.Errorf("invalid column type name: %q", name) }
	ErrUnexpectedValue = func(typ string, raw any) error {
		return fmt.Errorf("unexpected driver value %T for column type %s", raw, typ)
	}
	errUnbalanced = errors.New("unbalanced parentheses")
)

// duckType is a parsed DuckDB column type name, e.g.
// "STRUCT(a INTEGER, b VARCHAR[])" or "DECIMAL(18,3)".
type duckType struct {
	// id is the base type name, upper case, without arguments.
	id   string
	name string

	// LIST and ARRAY element, MAP value
	elem *duckType
	// ARRAY size
	size int
	// MAP key
	key *duckType
	// STRUCT fields and UNION members
	fields []duckField
	// DECIMAL scale
	scale uint8
}

type duckField struct {
	name string
	typ  *duckType
}

func (t *duckType) String() string {
	return t.name
}

func (t *duckType) field(name string) *duckType {
	for _, f := range t.fields {
		if f.name == name {
			return f.typ
		}
	}
	return nil
}

func parseDuckType(name string) (*duckType, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return &duckType{id: "", name: name}, nil
	}

	// LIST and ARRAY suffixes bind last
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open <= 0 {
			return nil, ErrInvalidTypeName(name)
		}
		elem, err := parseDuckType(s[:open])
		if err != nil {
			return nil, err
		}

		size := s[open+1 : len(s)-1]
		if size == "" {
			return &duckType{id: "LIST", name: s, elem: elem}, nil
		}
		n, err := strconv.Atoi(size)
		if err != nil || n < 0 {
			return nil, ErrInvalidTypeName(name)
		}
		return &duckType{id: "ARRAY", name: s, elem: elem, size: n}, nil
	}

	open := strings.Index(s, "(")
	if open < 0 {
		return &duckType{id: normalizeTypeID(s), name: s}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return nil, ErrInvalidTypeName(name)
	}

	t := &duckType{id: normalizeTypeID(s[:open]), name: s}
	args, err := splitTopLevel(s[open+1 : len(s)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, ErrInvalidTypeName(name))
	}

	switch t.id {
	case "DECIMAL":
		if len(args) == 2 {
			scale, err := strconv.ParseUint(strings.TrimSpace(args[1]), 10, 8)
			if err != nil {
				return nil, ErrInvalidTypeName(name)
			}
			t.scale = uint8(scale)
		}
	case "MAP":
		if len(args) != 2 {
			return nil, ErrInvalidTypeName(name)
		}
		if t.key, err = parseDuckType(args[0]); err != nil {
			return nil, err
		}
		if t.elem, err = parseDuckType(args[1]); err != nil {
			return nil, err
		}
	case "STRUCT", "UNION":
		for _, arg := range args {
			fieldName, rest := splitFieldName(strings.TrimSpace(arg))
			typ, err := parseDuckType(rest)
			if err != nil {
				return nil, err
			}
			t.fields = append(t.fields, duckField{name: fieldName, typ: typ})
		}
	}

	return t, nil
}

func normalizeTypeID(s string) string {
	id := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch id {
	case "TIMESTAMPTZ":
		return "TIMESTAMP WITH TIME ZONE"
	case "TIMETZ":
		return "TIME WITH TIME ZONE"
	case "TIMESTAMP_US", "DATETIME":
		return "TIMESTAMP"
	case "NUMERIC":
		return "DECIMAL"
	case "STRING", "TEXT":
		return "VARCHAR"
	}
	return id
}

// splitTopLevel splits s on commas that are not nested in parentheses,
// brackets or quotes.
func splitTopLevel(s string) ([]string, error) {
	var (
		out   []string
		depth int
		quote rune
		start int
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			depth--
			if depth < 0 {
				return nil, errUnbalanced
			}
		case r == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if depth != 0 {
		return nil, errUnbalanced
	}

	if last := strings.TrimSpace(s[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out, nil
}

// splitFieldName splits `"my field" INTEGER` into the unquoted name and the
// type.
func splitFieldName(s string) (name, typ string) {
	if strings.HasPrefix(s, `"`) {
		for i := 1; i < len(s); i++ {
			if s[i] != '"' {
				continue
			}
			// doubled quote is an escaped quote
			if i+1 < len(s) && s[i+1] == '"' {
				i++
				continue
			}
			return strings.ReplaceAll(s[1:i], `""`, `"`), strings.TrimSpace(s[i+1:])
		}
		return s, ""
	}

	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

// duckDecoder turns scanned go-duckdb values into Values using the column
// type name to pick the variant.
type duckDecoder struct {
	// normalize maps driver specific types to plain Go values or Values.
	normalize func(raw any) any

	mu    sync.Mutex
	types map[string]*duckType
}

func newDuckDecoder(normalize func(raw any) any) *duckDecoder {
	if normalize == nil {
		normalize = func(raw any) any { return raw }
	}
	return &duckDecoder{
		normalize: normalize,
		types:     make(map[string]*duckType),
	}
}

func (d *duckDecoder) lookup(typeName string) (*duckType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.types[typeName]
	if ok {
		return t, nil
	}

	t, err := parseDuckType(typeName)
	if err != nil {
		return nil, err
	}
	d.types[typeName] = t
	return t, nil
}

// Decode is a builders.Decoder.
func (d *duckDecoder) Decode(raw any, typeName string) (value.Value, error) {
	t, err := d.lookup(typeName)
	if err != nil {
		return nil, err
	}
	return d.decode(raw, t)
}

func (d *duckDecoder) decode(raw any, t *duckType) (value.Value, error) {
	raw = d.normalize(raw)
	if raw == nil {
		return value.Null{}, nil
	}
	if v, ok := raw.(value.Value); ok {
		return v, nil
	}
	if t == nil {
		return value.FromGo(raw)
	}

	switch t.id {
	case "TINYINT":
		return integer(raw, t, math.MinInt8, math.MaxInt8, func(i int64) value.Value { return value.Int8(i) })
	case "SMALLINT":
		return integer(raw, t, math.MinInt16, math.MaxInt16, func(i int64) value.Value { return value.Int16(i) })
	case "INTEGER":
		return integer(raw, t, math.MinInt32, math.MaxInt32, func(i int64) value.Value { return value.Int32(i) })
	case "BIGINT":
		return integer(raw, t, math.MinInt64, math.MaxInt64, func(i int64) value.Value { return value.Int64(i) })
	case "UTINYINT":
		return unsigned(raw, t, math.MaxUint8, func(u uint64) value.Value { return value.UInt8(u) })
	case "USMALLINT":
		return unsigned(raw, t, math.MaxUint16, func(u uint64) value.Value { return value.UInt16(u) })
	case "UINTEGER":
		return unsigned(raw, t, math.MaxUint32, func(u uint64) value.Value { return value.UInt32(u) })
	case "UBIGINT":
		return unsigned(raw, t, math.MaxUint64, func(u uint64) value.Value { return value.UInt64(u) })
	case "ENUM":
		if s, ok := raw.(string); ok {
			return value.Enum{Label: s}, nil
		}
	case "UUID":
		return decodeUUID(raw, t)
	case "DATE":
		if tm, ok := raw.(time.Time); ok {
			return value.DateOf(tm), nil
		}
	case "TIMESTAMP", "TIMESTAMP WITH TIME ZONE":
		return timestamp(raw, t, value.Microsecond)
	case "TIMESTAMP_S":
		return timestamp(raw, t, value.Second)
	case "TIMESTAMP_MS":
		return timestamp(raw, t, value.Millisecond)
	case "TIMESTAMP_NS":
		return timestamp(raw, t, value.Nanosecond)
	case "TIME":
		if tm, ok := raw.(time.Time); ok {
			return value.TimeOfDay(tm, value.Microsecond), nil
		}
	case "TIME WITH TIME ZONE":
		// normalized to the UTC time of day
		if tm, ok := raw.(time.Time); ok {
			return value.TimeOfDay(tm.UTC(), value.Microsecond), nil
		}
	case "HUGEINT", "UHUGEINT", "VARINT":
		return wideInteger(raw, t)
	case "BIT":
		if s, ok := raw.(string); ok {
			return value.Text(s), nil
		}
	case "LIST", "ARRAY":
		return d.sequence(raw, t)
	case "STRUCT":
		return d.structure(raw, t)
	case "MAP":
		return d.mapping(raw, t)
	case "UNION":
		return d.union(raw, t)
	}

	return value.FromGo(raw)
}

func integer(raw any, t *duckType, min, max int64, wrap func(int64) value.Value) (value.Value, error) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < min || i > max {
			return nil, ErrUnexpectedValue(t.name, raw)
		}
		return wrap(i), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > uint64(max) {
			return nil, ErrUnexpectedValue(t.name, raw)
		}
		return wrap(int64(u)), nil
	}
	return nil, ErrUnexpectedValue(t.name, raw)
}

func unsigned(raw any, t *duckType, max uint64, wrap func(uint64) value.Value) (value.Value, error) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > max {
			return nil, ErrUnexpectedValue(t.name, raw)
		}
		return wrap(u), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 || uint64(i) > max {
			return nil, ErrUnexpectedValue(t.name, raw)
		}
		return wrap(uint64(i)), nil
	}
	return nil, ErrUnexpectedValue(t.name, raw)
}

// wideInteger decodes integers beyond 64 bits. Values that do not fit a
// HugeInt, like the upper half of UHUGEINT, become scale 0 decimals.
func wideInteger(raw any, t *duckType) (value.Value, error) {
	var b *big.Int
	switch v := raw.(type) {
	case *big.Int:
		b = v
	case big.Int:
		b = &v
	case string:
		parsed, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, ErrUnexpectedValue(t.name, raw)
		}
		b = parsed
	default:
		return value.FromGo(raw)
	}

	if t.id == "UHUGEINT" && b.Sign() < 0 {
		return nil, ErrUnexpectedValue(t.name, raw)
	}
	return value.FromGo(b)
}

func timestamp(raw any, t *duckType, unit value.TimeUnit) (value.Value, error) {
	tm, ok := raw.(time.Time)
	if !ok {
		return nil, ErrUnexpectedValue(t.name, raw)
	}
	return value.TimestampOf(tm, unit), nil
}

func decodeUUID(raw any, t *duckType) (value.Value, error) {
	switch v := raw.(type) {
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("uuid.Parse: %w", err)
		}
		return value.Text(u.String()), nil
	case []byte:
		u, err := uuid.FromBytes(v)
		if err != nil {
			return nil, fmt.Errorf("uuid.FromBytes: %w", err)
		}
		return value.Text(u.String()), nil
	}

	// fixed size byte arrays, e.g. [16]byte
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Array && rv.Len() == 16 && rv.Type().Elem().Kind() == reflect.Uint8 {
		var u uuid.UUID
		reflect.Copy(reflect.ValueOf(u[:]), rv)
		return value.Text(u.String()), nil
	}
	return nil, ErrUnexpectedValue(t.name, raw)
}

func (d *duckDecoder) sequence(raw any, t *duckType) (value.Value, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, ErrUnexpectedValue(t.name, raw)
	}

	out := make([]value.Value, len(items))
	for i := range items {
		elem, err := d.decode(items[i], t.elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = elem
	}

	if t.id == "ARRAY" {
		return value.Array(out), nil
	}
	return value.List(out), nil
}

// structure keeps the field order of the type name; the driver hands out an
// unordered map.
func (d *duckDecoder) structure(raw any, t *duckType) (value.Value, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrUnexpectedValue(t.name, raw)
	}
	if len(t.fields) == 0 {
		return value.FromGo(fields)
	}

	out := make(value.Struct, 0, len(t.fields))
	for _, f := range t.fields {
		v, err := d.decode(fields[f.name], f.typ)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.name, err)
		}
		out = append(out, value.Field{Name: f.name, Value: v})
	}
	return out, nil
}

func (d *duckDecoder) mapping(raw any, t *duckType) (value.Value, error) {
	entries, ok := raw.(map[any]any)
	if !ok {
		return nil, ErrUnexpectedValue(t.name, raw)
	}

	return value.MapFromGo(entries,
		func(k any) (value.Value, error) { return d.decode(k, t.key) },
		func(v any) (value.Value, error) { return d.decode(v, t.elem) },
	)
}

// union accepts any struct with a string Tag and a Value field.
func (d *duckDecoder) union(raw any, t *duckType) (value.Value, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		tag := rv.FieldByName("Tag")
		val := rv.FieldByName("Value")
		if tag.IsValid() && tag.Kind() == reflect.String && val.IsValid() {
			inner, err := d.decode(val.Interface(), t.field(tag.String()))
			if err != nil {
				return nil, fmt.Errorf("union member %q: %w", tag.String(), err)
			}
			return value.Union{Tag: tag.String(), Value: inner}, nil
		}
	}

	// untagged: the active member's value as is
	inner, err := value.FromGo(raw)
	if err != nil {
		return nil, err
	}
	return value.Union{Value: inner}, nil
}
