package host

import (
	"bytes"
	"math/big"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/neovim/go-client/msgpack"
	"github.com/shopspring/decimal"
)

// msgpack extension codes for host values that have no native msgpack type.
const (
	ExtSymbol   = 1 // utf-8 label
	ExtBigInt   = 2 // base 10 text
	ExtDecimal  = 3 // base 10 text
	ExtDate     = 4 // YYYY-MM-DD
	ExtInstant  = 5 // RFC 3339 with nanoseconds, UTC
	ExtDuration = 6 // whole seconds, base 10 text
	ExtTagged   = 7 // msgpack array [tag, value]
)

// MsgPack wraps a host value so it can be passed to a msgpack encoder.
type MsgPack struct {
	Value any
}

func (m MsgPack) MarshalMsgPack(enc *msgpack.Encoder) error {
	return EncodeMsgPack(enc, m.Value)
}

func (o *Object) MarshalMsgPack(enc *msgpack.Encoder) error {
	if err := enc.PackMapLen(int64(len(o.pairs))); err != nil {
		return err
	}
	for _, p := range o.pairs {
		if err := EncodeMsgPack(enc, p.Key); err != nil {
			return err
		}
		if err := EncodeMsgPack(enc, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// EncodeMsgPack writes a single host value.
func EncodeMsgPack(enc *msgpack.Encoder, v any) error {
	switch t := v.(type) {
	case nil:
		return enc.PackNil()
	case bool:
		return enc.PackBool(t)
	case int64:
		return enc.PackInt(t)
	case float64:
		return enc.PackFloat(t)
	case string:
		return enc.PackString(t)
	case []byte:
		return enc.PackBinary(t)
	case Symbol:
		return enc.PackExtension(ExtSymbol, []byte(t))
	case *big.Int:
		switch {
		case t.IsInt64():
			return enc.PackInt(t.Int64())
		case t.IsUint64():
			return enc.PackUint(t.Uint64())
		default:
			return enc.PackExtension(ExtBigInt, []byte(t.String()))
		}
	case decimal.Decimal:
		return enc.PackExtension(ExtDecimal, []byte(decimalText(t)))
	case civil.Date:
		return enc.PackExtension(ExtDate, []byte(t.String()))
	case time.Time:
		return enc.PackExtension(ExtInstant, []byte(t.UTC().Format(time.RFC3339Nano)))
	case Duration:
		return enc.PackExtension(ExtDuration, []byte(strconv.FormatInt(int64(t), 10)))
	case Tagged:
		var buf bytes.Buffer
		inner := msgpack.NewEncoder(&buf)
		if err := inner.PackArrayLen(2); err != nil {
			return err
		}
		if err := inner.PackString(t.Tag); err != nil {
			return err
		}
		if err := EncodeMsgPack(inner, t.Value); err != nil {
			return err
		}
		return enc.PackExtension(ExtTagged, buf.Bytes())
	case []any:
		if err := enc.PackArrayLen(int64(len(t))); err != nil {
			return err
		}
		for _, elem := range t {
			if err := EncodeMsgPack(enc, elem); err != nil {
				return err
			}
		}
		return nil
	case *Object:
		return t.MarshalMsgPack(enc)
	case *IndifferentObject:
		return t.Object.MarshalMsgPack(enc)
	default:
		return enc.Encode(v)
	}
}

// decimalText keeps the scale of d, so 10.00 stays 10.00.
func decimalText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
