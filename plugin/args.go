package plugin

import (
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrNotAStruct          = func(v any) error { return fmt.Errorf("provided type is not a struct: %T", v) }
	ErrRequiredFieldNotSet = func(field string) error { return fmt.Errorf("required field %q not set", field) }
	ErrInvalidFieldType    = func(field string, want any, got any) error {
		return fmt.Errorf("value for field %q not of compatible type: want %T, got %T", field, want, got)
	}
)

// Args decodes a keyed argument map, as sent by the host for option hashes,
// into a declarative structure. Fields are matched by their "arg" tag:
//
//	Path string `arg:"path,optional"`
//
// An untagged field is matched by its Go name and is required.
type Args[T any] struct {
	args map[string]any
}

func NewArgs[T any](raw map[string]any) *Args[T] {
	return &Args[T]{args: raw}
}

func (fa *Args[T]) Parse() (*T, error) {
	t := new(T)

	if reflect.ValueOf(*t).Kind() != reflect.Struct {
		return nil, ErrNotAStruct(*t)
	}

	v := reflect.ValueOf(t).Elem()

	for i := 0; i < v.NumField(); i++ {
		valueField := v.Field(i)
		typeField := v.Type().Field(i)

		// parse tags
		tags := strings.Split(typeField.Tag.Get("arg"), ",")
		name := typeField.Name
		required := true
		for i, tag := range tags {
			if i == 0 && tag != "" {
				name = tag
			} else if tag == "optional" {
				required = false
			}
		}

		if !valueField.CanSet() {
			if required {
				return nil, ErrRequiredFieldNotSet(name)
			}
			continue
		}

		val, ok := fa.args[name]
		if !ok || val == nil {
			if required {
				return nil, ErrRequiredFieldNotSet(name)
			}
			continue
		}

		setVal, ok := coerce(val, typeField.Type)
		if !ok {
			return nil, ErrInvalidFieldType(name, valueField.Interface(), val)
		}

		valueField.Set(setVal)
	}

	return t, nil
}

// coerce converts a decoded msgpack value to typ. Integer widths are
// interchangeable as long as the value fits.
func coerce(val any, typ reflect.Type) (reflect.Value, bool) {
	rv := reflect.ValueOf(val)

	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(val)
		if !ok || reflect.Zero(typ).OverflowInt(n) {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(typ), true
	case reflect.Float32, reflect.Float64:
		if n, ok := toInt64(val); ok {
			return reflect.ValueOf(float64(n)).Convert(typ), true
		}
		if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
			return rv.Convert(typ), true
		}
		return reflect.Value{}, false
	case reflect.Slice:
		items, ok := val.([]any)
		if !ok {
			break
		}
		out := reflect.MakeSlice(typ, len(items), len(items))
		for i, item := range items {
			elem, ok := coerce(item, typ.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(elem)
		}
		return out, true
	}

	if rv.Type() == typ {
		return rv, true
	}
	if rv.Kind() == typ.Kind() && rv.Type().ConvertibleTo(typ) {
		return rv.Convert(typ), true
	}
	return reflect.Value{}, false
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), t <= 1<<63-1
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), t <= 1<<63-1
	}

	return 0, false
}
