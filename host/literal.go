package host

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var ErrNoLiteral = func(v any) error { return fmt.Errorf("no SQL literal for host value of type %T", v) }

// Quote returns s as a single quoted SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier returns name as a double quoted SQL identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Literal renders v as DuckDB literal syntax. Queries take no bound
// parameters, so this is how values get inlined into SQL text.
func Literal(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if t {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(t), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case *big.Int:
		return t.String(), nil
	case decimal.Decimal:
		return decimalText(t), nil
	case float32:
		return floatLiteral(float64(t)), nil
	case float64:
		return floatLiteral(t), nil
	case string:
		return Quote(t), nil
	case Symbol:
		return Quote(string(t)), nil
	case []byte:
		var sb strings.Builder
		sb.WriteByte('\'')
		for _, b := range t {
			sb.WriteString(`\x`)
			sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
		}
		sb.WriteString("'::BLOB")
		return sb.String(), nil
	case civil.Date:
		return "DATE " + Quote(t.String()), nil
	case time.Time:
		return "TIMESTAMP " + Quote(t.UTC().Format("2006-01-02 15:04:05.999999")), nil
	case Duration:
		return fmt.Sprintf("INTERVAL %d SECOND", int64(t)), nil
	case Tagged:
		return Literal(t.Value)
	case []any:
		parts := make([]string, len(t))
		for i := range t {
			lit, err := Literal(t[i])
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *IndifferentObject:
		return Literal(t.Object)
	case *Object:
		parts := make([]string, 0, t.Len())
		for _, p := range t.Pairs() {
			k, err := Literal(p.Key)
			if err != nil {
				return "", err
			}
			val, err := Literal(p.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, k+": "+val)
		}
		return "MAP {" + strings.Join(parts, ", ") + "}", nil
	}

	return "", ErrNoLiteral(v)
}

func floatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "'nan'::DOUBLE"
	case math.IsInf(f, 1):
		return "'inf'::DOUBLE"
	case math.IsInf(f, -1):
		return "'-inf'::DOUBLE"
	}
	return strconv.FormatFloat(f, 'g', -1, 64) + "::DOUBLE"
}
