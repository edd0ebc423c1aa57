package value

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"slices"
	"sort"
	"strings"
	"time"
)

var ErrUnsupportedGoType = func(v any) error { return fmt.Errorf("no engine value for driver type %T", v) }

// FromGo maps a plain Go value, as returned by a database/sql driver scan into
// an any, to a Value. Go maps carry no order, so struct fields and map entries
// are sorted by key to keep the result deterministic.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Boolean(t), nil
	case int8:
		return Int8(t), nil
	case int16:
		return Int16(t), nil
	case int32:
		return Int32(t), nil
	case int64:
		return Int64(t), nil
	case int:
		return Int64(t), nil
	case uint8:
		return UInt8(t), nil
	case uint16:
		return UInt16(t), nil
	case uint32:
		return UInt32(t), nil
	case uint64:
		return UInt64(t), nil
	case uint:
		return UInt64(t), nil
	case float32:
		return Float32(t), nil
	case float64:
		return Float64(t), nil
	case string:
		return Text(t), nil
	case []byte:
		b := make([]byte, len(t))
		copy(b, t)
		return Blob(b), nil
	case time.Time:
		return TimestampOf(t, Microsecond), nil
	case *big.Int:
		if t == nil {
			return Null{}, nil
		}
		h, err := HugeIntFromBig(t)
		if err != nil {
			// wider than 128 bits: keep it exact as a scale 0 decimal
			return Decimal{Unscaled: new(big.Int).Set(t)}, nil
		}
		return h, nil
	case []any:
		list := make(List, len(t))
		for i := range t {
			elem, err := FromGo(t[i])
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			list[i] = elem
		}
		return list, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		st := make(Struct, 0, len(t))
		for _, k := range keys {
			field, err := FromGo(t[k])
			if err != nil {
				return nil, fmt.Errorf("struct field %q: %w", k, err)
			}
			st = append(st, Field{Name: k, Value: field})
		}
		return st, nil
	case map[any]any:
		return MapFromGo(t, FromGo, FromGo)
	}

	return nil, ErrUnsupportedGoType(v)
}

// MapFromGo converts a Go map with the given key and value decoders. Go maps
// carry no order, so entries are sorted by key: numbers by value, times by
// instant, strings lexically. Keys of different kinds are grouped by kind.
func MapFromGo(m map[any]any, decodeKey, decodeValue func(any) (Value, error)) (Map, error) {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	out := make(Map, 0, len(m))
	for _, k := range keys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("map key %v: %w", k, err)
		}
		val, err := decodeValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("map value for key %v: %w", k, err)
		}
		out = append(out, Entry{Key: key, Value: val})
	}
	return out, nil
}

type keyKind int

const (
	keyBool keyKind = iota
	keyNumber
	keyString
	keyTime
	keyOther
)

func kindOfKey(k any) keyKind {
	switch t := k.(type) {
	case bool:
		return keyBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int:
		return keyNumber
	case float32:
		if math.IsNaN(float64(t)) {
			return keyOther
		}
		return keyNumber
	case float64:
		if math.IsNaN(t) {
			return keyOther
		}
		return keyNumber
	case string:
		return keyString
	case time.Time:
		return keyTime
	default:
		return keyOther
	}
}

func compareKeys(a, b any) int {
	ka, kb := kindOfKey(a), kindOfKey(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}

	switch ka {
	case keyBool:
		return cmp.Compare(boolRank(a.(bool)), boolRank(b.(bool)))
	case keyNumber:
		return numberOf(a).Cmp(numberOf(b))
	case keyString:
		return strings.Compare(a.(string), b.(string))
	case keyTime:
		return a.(time.Time).Compare(b.(time.Time))
	}

	if c := strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); c != 0 {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// numberOf widens any key of kind keyNumber.
func numberOf(k any) *big.Float {
	f := new(big.Float)
	switch t := k.(type) {
	case int:
		f.SetInt64(int64(t))
	case int8:
		f.SetInt64(int64(t))
	case int16:
		f.SetInt64(int64(t))
	case int32:
		f.SetInt64(int64(t))
	case int64:
		f.SetInt64(t)
	case uint:
		f.SetUint64(uint64(t))
	case uint8:
		f.SetUint64(uint64(t))
	case uint16:
		f.SetUint64(uint64(t))
	case uint32:
		f.SetUint64(uint64(t))
	case uint64:
		f.SetUint64(t)
	case float32:
		f.SetFloat64(float64(t))
	case float64:
		f.SetFloat64(t)
	case *big.Int:
		if t != nil {
			f.SetInt(t)
		}
	}
	return f
}
