// Package host defines the dynamic values handed to the embedding runtime.
//
// A host value is one of:
//
//	nil                null
//	bool               boolean
//	int64              machine integer
//	*big.Int           arbitrary precision integer
//	decimal.Decimal    arbitrary precision decimal
//	float64            float
//	string             UTF-8 string
//	[]byte             byte sequence
//	civil.Date         calendar date
//	time.Time          instant
//	Duration           duration in whole seconds
//	[]any              ordered array
//	*Object            ordered key-value structure
//	*IndifferentObject Object accepting string and Symbol lookups
//	Symbol             interned label
//	Tagged             union value with its member tag
package host

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Symbol is an interned label, such as an enum value or an object key
// produced from a column name.
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

// Duration is a calendar-naive span of whole seconds.
type Duration int64

// Std returns the duration as a time.Duration. ok is false when it does not
// fit (roughly beyond 292 years).
func (d Duration) Std() (dur time.Duration, ok bool) {
	const maxSeconds = int64(1<<63-1) / int64(time.Second)
	if int64(d) > maxSeconds || int64(d) < -maxSeconds {
		return 0, false
	}
	return time.Duration(d) * time.Second, true
}

// Tagged is a union value that keeps the name of the member it came from.
type Tagged struct {
	Tag   string
	Value any
}

// KeyString is the canonical string form of a key, used wherever a key has
// to become a string (JSON objects, CSV cells).
func KeyString(key any) string {
	switch k := key.(type) {
	case nil:
		return ""
	case string:
		return k
	case Symbol:
		return string(k)
	case *big.Int:
		return k.String()
	case decimal.Decimal:
		return decimalText(k)
	case civil.Date:
		return k.String()
	case time.Time:
		return k.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(k)
	case Tagged:
		return KeyString(k.Value)
	default:
		return fmt.Sprint(k)
	}
}
