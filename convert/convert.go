// Package convert turns engine values into host values.
package convert

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/snowduck/snowduck/host"
	"github.com/snowduck/snowduck/value"
)

// Calendar-naive interval constants: a month is 30 days, a day 24 hours.
const (
	SecondsPerDay   = 86_400
	SecondsPerMonth = 30 * SecondsPerDay
)

var ErrDepthExceeded = errors.New("value nesting exceeds maximum depth")

// Converter holds everything a conversion needs. It has no mutable state
// and is safe for concurrent use.
type Converter struct {
	config
}

func New(opts ...Option) *Converter {
	cfg := config{
		maxDepth:  DefaultMaxDepth,
		precision: TimeFloat,
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Converter{config: cfg}
}

// Convert maps v to a host value. It fails only for values nested deeper
// than the configured maximum depth.
func (c *Converter) Convert(v value.Value) (any, error) {
	return c.convert(v, 0)
}

func (c *Converter) convert(v value.Value, depth int) (any, error) {
	if depth > c.maxDepth {
		return nil, ErrDepthExceeded
	}
	if v == nil {
		return nil, nil
	}
	return v.Accept(&visitor{c: c, depth: depth})
}

var _ value.Visitor = (*visitor)(nil)

type visitor struct {
	c     *Converter
	depth int
}

func (v *visitor) child(val value.Value) (any, error) {
	return v.c.convert(val, v.depth+1)
}

func (*visitor) VisitNull(value.Null) (any, error)         { return nil, nil }
func (*visitor) VisitBoolean(b value.Boolean) (any, error) { return bool(b), nil }
func (*visitor) VisitInt8(i value.Int8) (any, error)       { return int64(i), nil }
func (*visitor) VisitInt16(i value.Int16) (any, error)     { return int64(i), nil }
func (*visitor) VisitInt32(i value.Int32) (any, error)     { return int64(i), nil }
func (*visitor) VisitInt64(i value.Int64) (any, error)     { return int64(i), nil }
func (*visitor) VisitUInt8(i value.UInt8) (any, error)     { return int64(i), nil }
func (*visitor) VisitUInt16(i value.UInt16) (any, error)   { return int64(i), nil }
func (*visitor) VisitUInt32(i value.UInt32) (any, error)   { return int64(i), nil }
func (*visitor) VisitFloat32(f value.Float32) (any, error) { return float64(f), nil }
func (*visitor) VisitFloat64(f value.Float64) (any, error) { return float64(f), nil }
func (*visitor) VisitText(s value.Text) (any, error)       { return string(s), nil }
func (*visitor) VisitEnum(e value.Enum) (any, error)       { return host.Symbol(e.Label), nil }

func (*visitor) VisitUInt64(i value.UInt64) (any, error) {
	if i <= math.MaxInt64 {
		return int64(i), nil
	}
	return new(big.Int).SetUint64(uint64(i)), nil
}

func (*visitor) VisitHugeInt(h value.HugeInt) (any, error) {
	b, ok := new(big.Int).SetString(h.String(), 10)
	if !ok {
		return nil, fmt.Errorf("invalid hugeint text %q", h.String())
	}
	return b, nil
}

func (*visitor) VisitDecimal(d value.Decimal) (any, error) {
	dec, err := decimal.NewFromString(d.String())
	if err != nil {
		return nil, fmt.Errorf("decimal.NewFromString: %w", err)
	}
	return dec, nil
}

func (*visitor) VisitBlob(b value.Blob) (any, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (v *visitor) VisitDate32(d value.Date32) (any, error) {
	t := time.Date(1970, time.January, 1+int(d), 0, 0, 0, 0, time.UTC)
	year, month, day := t.Date()
	return civil.Date{Year: year, Month: month, Day: day}, nil
}

func (v *visitor) VisitTimestamp(ts value.Timestamp) (any, error) {
	return v.instant(ts.Unit, ts.Value), nil
}

func (v *visitor) VisitTime(t value.Time) (any, error) {
	return v.instant(t.Unit, t.Value), nil
}

func (v *visitor) instant(unit value.TimeUnit, units int64) time.Time {
	per := unit.PerSecond()

	var t time.Time
	switch {
	case per == 1:
		t = time.Unix(units, 0)
	case v.c.precision == TimeExact:
		t = time.Unix(units/per, (units%per)*(1_000_000_000/per))
	default:
		seconds := float64(units) / float64(per)
		whole, frac := math.Modf(seconds)
		t = time.Unix(int64(whole), int64(math.Round(frac*1e9)))
	}

	return t.In(v.c.location)
}

func (*visitor) VisitInterval(i value.Interval) (any, error) {
	seconds := int64(i.Months)*SecondsPerMonth +
		int64(i.Days)*SecondsPerDay +
		i.Nanos/1_000_000_000
	return host.Duration(seconds), nil
}

func (v *visitor) VisitList(l value.List) (any, error) {
	return v.sequence(l)
}

func (v *visitor) VisitArray(a value.Array) (any, error) {
	return v.sequence(a)
}

func (v *visitor) sequence(elems []value.Value) (any, error) {
	out := make([]any, len(elems))
	for i, elem := range elems {
		conv, err := v.child(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = conv
	}
	return out, nil
}

func (v *visitor) VisitStruct(s value.Struct) (any, error) {
	obj := host.NewObject(len(s))
	for _, field := range s {
		conv, err := v.child(field.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		obj.Set(field.Name, conv)
	}
	return obj, nil
}

func (v *visitor) VisitMap(m value.Map) (any, error) {
	obj := host.NewObject(len(m))
	for i, entry := range m {
		key, err := v.child(entry.Key)
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		val, err := v.child(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		obj.Set(key, val)
	}
	return obj, nil
}

func (v *visitor) VisitUnion(u value.Union) (any, error) {
	inner, err := v.child(u.Value)
	if err != nil {
		return nil, fmt.Errorf("union member %q: %w", u.Tag, err)
	}
	if v.c.unionTags {
		return host.Tagged{Tag: u.Tag, Value: inner}, nil
	}
	return inner, nil
}
