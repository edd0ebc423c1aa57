package host

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

var _ Keyed = (*Object)(nil)
var _ Keyed = (*IndifferentObject)(nil)

// Keyed is implemented by ordered key-value host structures.
type Keyed interface {
	Len() int
	Pairs() []Pair
	Keys() []any
	Get(key any) (any, bool)
}

type Pair struct {
	Key   any
	Value any
}

// Object is an ordered key-value structure. Keys can be any host value and
// may repeat; lookups return the first match.
type Object struct {
	pairs []Pair
}

func NewObject(capacity int) *Object {
	return &Object{pairs: make([]Pair, 0, capacity)}
}

// Set appends a key-value pair.
func (o *Object) Set(key, val any) {
	o.pairs = append(o.pairs, Pair{Key: key, Value: val})
}

func (o *Object) Len() int {
	return len(o.pairs)
}

func (o *Object) Pairs() []Pair {
	return o.pairs
}

func (o *Object) Keys() []any {
	keys := make([]any, len(o.pairs))
	for i := range o.pairs {
		keys[i] = o.pairs[i].Key
	}
	return keys
}

func (o *Object) Values() []any {
	vals := make([]any, len(o.pairs))
	for i := range o.pairs {
		vals[i] = o.pairs[i].Value
	}
	return vals
}

func (o *Object) Get(key any) (any, bool) {
	for _, p := range o.pairs {
		if keyEqual(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes a JSON object in pair order with KeyString keys.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(KeyString(p.Key))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(JSONValue(p.Value))
		if err != nil {
			return nil, fmt.Errorf("json.Marshal: %w", err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Object) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o.pairs {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%v: %v", p.Key, p.Value)
	}
	buf.WriteByte('}')
	return buf.String()
}

// IndifferentObject wraps an Object so that a string key and a Symbol key with
// the same text address the same entry.
type IndifferentObject struct {
	*Object
}

func Indifferent(o *Object) *IndifferentObject {
	return &IndifferentObject{Object: o}
}

func (o *IndifferentObject) Get(key any) (any, bool) {
	want, ok := textKey(key)
	if !ok {
		return o.Object.Get(key)
	}

	for _, p := range o.pairs {
		if got, ok := textKey(p.Key); ok && got == want {
			return p.Value, true
		}
	}
	return nil, false
}

func textKey(key any) (string, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case Symbol:
		return string(k), true
	default:
		return "", false
	}
}

func keyEqual(a, b any) bool {
	switch x := a.(type) {
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
