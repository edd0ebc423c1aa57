package host_test

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/neovim/go-client/msgpack"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/host"
)

func TestObject_Get(t *testing.T) {
	r := require.New(t)

	o := host.NewObject(3)
	o.Set(host.Symbol("a"), int64(1))
	o.Set(host.Symbol("a"), int64(2))
	o.Set(big.NewInt(7), "seven")

	r.Equal(3, o.Len())
	r.Equal([]any{host.Symbol("a"), host.Symbol("a"), big.NewInt(7)}, o.Keys())
	r.Equal([]any{int64(1), int64(2), "seven"}, o.Values())

	got, ok := o.Get(host.Symbol("a"))
	r.True(ok)
	r.Equal(int64(1), got)

	got, ok = o.Get(big.NewInt(7))
	r.True(ok)
	r.Equal("seven", got)

	// plain objects distinguish strings from symbols
	_, ok = o.Get("a")
	r.False(ok)
}

func TestIndifferentObject_Get(t *testing.T) {
	r := require.New(t)

	o := host.NewObject(2)
	o.Set(host.Symbol("id"), int64(1))
	o.Set("name", "john")
	io := host.Indifferent(o)

	got, ok := io.Get("id")
	r.True(ok)
	r.Equal(int64(1), got)

	got, ok = io.Get(host.Symbol("name"))
	r.True(ok)
	r.Equal("john", got)

	_, ok = io.Get(int64(1))
	r.False(ok)
}

func TestObject_MarshalJSON(t *testing.T) {
	o := host.NewObject(4)
	o.Set(host.Symbol("z"), host.Symbol("label"))
	o.Set(int64(1), []any{int64(2), nil})
	o.Set("d", host.Duration(90))
	o.Set("u", host.Tagged{Tag: "num", Value: int64(3)})

	out, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"label","1":[2,null],"d":90,"u":{"tag":"num","value":3}}`, string(out))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "sym", host.KeyString(host.Symbol("sym")))
	assert.Equal(t, "12", host.KeyString(int64(12)))
	assert.Equal(t, "2024-02-29", host.KeyString(civil.Date{Year: 2024, Month: 2, Day: 29}))
	assert.Equal(t, "1.50", host.KeyString(decimal.RequireFromString("1.50")))
	assert.Equal(t, "", host.KeyString(nil))
}

func TestDuration_Std(t *testing.T) {
	d, ok := host.Duration(90).Std()
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, d)

	_, ok = host.Duration(math.MaxInt64).Std()
	assert.False(t, ok)
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "null", input: nil, want: "NULL"},
		{name: "boolean", input: true, want: "TRUE"},
		{name: "integer", input: int64(-42), want: "-42"},
		{name: "unsigned", input: uint64(math.MaxUint64), want: "18446744073709551615"},
		{name: "big integer", input: big.NewInt(99), want: "99"},
		{name: "decimal keeps scale", input: decimal.RequireFromString("10.00"), want: "10.00"},
		{name: "text escapes quotes", input: "it's", want: "'it''s'"},
		{name: "symbol", input: host.Symbol("a"), want: "'a'"},
		{name: "blob", input: []byte{0x00, 0xAB}, want: `'\x00\xAB'::BLOB`},
		{name: "date", input: civil.Date{Year: 2024, Month: 1, Day: 2}, want: "DATE '2024-01-02'"},
		{name: "timestamp", input: time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC), want: "TIMESTAMP '2024-01-02 03:04:05.000006'"},
		{name: "duration", input: host.Duration(30), want: "INTERVAL 30 SECOND"},
		{name: "float", input: 1.5, want: "1.5::DOUBLE"},
		{name: "nan", input: math.NaN(), want: "'nan'::DOUBLE"},
		{name: "array", input: []any{int64(1), "x"}, want: "[1, 'x']"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := host.Literal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	o := host.NewObject(1)
	o.Set("k", int64(1))
	got, err := host.Literal(host.Indifferent(o))
	require.NoError(t, err)
	assert.Equal(t, "MAP {'k': 1}", got)

	_, err = host.Literal(struct{}{})
	assert.Error(t, err)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"my ""table"""`, host.QuoteIdentifier(`my "table"`))
}

func TestEncodeMsgPack(t *testing.T) {
	r := require.New(t)

	o := host.NewObject(2)
	o.Set("a", int64(1))
	o.Set("b", []any{true, nil})

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	r.NoError(host.EncodeMsgPack(enc, o))

	// fixmap with two entries
	r.Equal(byte(0x82), buf.Bytes()[0])

	buf.Reset()
	values := []any{
		host.Symbol("s"),
		new(big.Int).Lsh(big.NewInt(1), 70),
		decimal.RequireFromString("1.25"),
		civil.Date{Year: 2024, Month: 1, Day: 1},
		time.Unix(0, 0),
		host.Duration(5),
		host.Tagged{Tag: "t", Value: "v"},
		host.Indifferent(o),
	}
	r.NoError(host.EncodeMsgPack(enc, values))
	// fixarray with eight entries
	r.Equal(byte(0x98), buf.Bytes()[0])
}
